package platform

import (
	"errors"
	"fmt"
	"net/http"
)

// Ошибки платформы.
var (
	// ErrNotFound — приложение, ветка, working copy или unit не найдены.
	ErrNotFound = errors.New("platform: not found")

	// ErrUnauthorized — токен отсутствует или не даёт доступа.
	ErrUnauthorized = errors.New("platform: unauthorized")

	// ErrConflict — ветка ушла вперёд или изменения конфликтуют.
	ErrConflict = errors.New("platform: conflict")

	// ErrUnavailable — платформа недоступна или вернула 5xx.
	ErrUnavailable = errors.New("platform: unavailable")
)

// APIError — ошибка, которую вернул REST API платформы.
type APIError struct {
	Status  int
	Code    string
	Message string
}

// Error реализует интерфейс error.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("platform: HTTP %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("platform: HTTP %d: %s", e.Status, e.Message)
}

// Unwrap сопоставляет HTTP статус с ошибкой пакета.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return ErrUnauthorized
	case e.Status == http.StatusConflict:
		return ErrConflict
	case e.Status >= 500:
		return ErrUnavailable
	default:
		return nil
	}
}
