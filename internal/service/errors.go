package service

import "errors"

var (
	// ErrModuleNotFound — в модели нет модуля с таким именем.
	ErrModuleNotFound = errors.New("module not found")

	// ErrMicroflowNotFound — в модуле нет микрофлоу с таким именем.
	ErrMicroflowNotFound = errors.New("microflow not found")

	// ErrNoMatch — фильтр по модулю не совпал ни с одним элементом.
	ErrNoMatch = errors.New("no elements match filter")

	// ErrInvalidRequest — некорректные параметры запроса.
	ErrInvalidRequest = errors.New("invalid request")
)
