package model

import "errors"

var (
	// ErrNotFound — элемент модели не найден.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID — в документе несколько units с одинаковым ID.
	ErrDuplicateID = errors.New("duplicate unit id")

	// ErrEmptyID — unit без ID.
	ErrEmptyID = errors.New("unit has empty id")

	// ErrDanglingReference — ссылка на unit, которого нет в модели.
	ErrDanglingReference = errors.New("dangling unit reference")

	// ErrDuplicateName — в модуле уже есть элемент с таким именем.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrInvalidName — имя не является допустимым идентификатором.
	ErrInvalidName = errors.New("invalid name")

	// ErrInvalidSpec — некорректное описание создаваемого элемента.
	ErrInvalidSpec = errors.New("invalid spec")

	// ErrReadOnlyModule — модуль из маркетплейса нельзя изменять.
	ErrReadOnlyModule = errors.New("module is read-only")
)
