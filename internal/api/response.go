package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ebstat/sdkmendixtest/internal/model"
	"github.com/ebstat/sdkmendixtest/internal/platform"
	"github.com/ebstat/sdkmendixtest/internal/repo"
	"github.com/ebstat/sdkmendixtest/internal/service"
)

// ErrorCode — код ошибки API.
type ErrorCode string

const (
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeInvalidState  ErrorCode = "INVALID_STATE"
	ErrCodeUpstream      ErrorCode = "UPSTREAM_ERROR"
	ErrCodeUnavailable   ErrorCode = "UNAVAILABLE"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// ErrorResponse — структура ответа с ошибкой.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail — детали ошибки.
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// DataResponse — структура успешного ответа.
type DataResponse struct {
	Data any `json:"data"`
}

// ListResponse — структура ответа со списком.
type ListResponse struct {
	Data  any `json:"data"`
	Total int `json:"total"`
}

// JSON отправляет JSON ответ.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Success отправляет успешный ответ с данными.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, DataResponse{Data: data})
}

// Created отправляет ответ о создании ресурса.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, DataResponse{Data: data})
}

// List отправляет ответ со списком.
func List(w http.ResponseWriter, data any, total int) {
	JSON(w, http.StatusOK, ListResponse{Data: data, Total: total})
}

// Error отправляет ответ с ошибкой.
func Error(w http.ResponseWriter, status int, code ErrorCode, message string) {
	JSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// BadRequest отправляет ошибку 400.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// NotFound отправляет ошибку 404.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// Conflict отправляет ошибку 409.
func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, ErrCodeConflict, message)
}

// InvalidState отправляет ошибку 422.
func InvalidState(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnprocessableEntity, ErrCodeInvalidState, message)
}

// Unavailable отправляет ошибку 503.
func Unavailable(w http.ResponseWriter, message string) {
	Error(w, http.StatusServiceUnavailable, ErrCodeUnavailable, message)
}

// InternalError отправляет ошибку 500.
func InternalError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
}

// HandleError преобразует ошибку сервиса, модели, платформы или репозитория
// в HTTP ответ. Возвращает false, если err == nil.
func HandleError(w http.ResponseWriter, logger *slog.Logger, err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, model.ErrInvalidName),
		errors.Is(err, model.ErrInvalidSpec):
		BadRequest(w, err.Error())

	case errors.Is(err, service.ErrModuleNotFound),
		errors.Is(err, service.ErrMicroflowNotFound),
		errors.Is(err, service.ErrNoMatch),
		errors.Is(err, model.ErrNotFound),
		errors.Is(err, platform.ErrNotFound),
		errors.Is(err, repo.ErrNotFound):
		NotFound(w, err.Error())

	case errors.Is(err, model.ErrDuplicateName),
		errors.Is(err, platform.ErrConflict):
		Conflict(w, err.Error())

	case errors.Is(err, model.ErrReadOnlyModule),
		errors.Is(err, repo.ErrInvalidState):
		InvalidState(w, err.Error())

	case isUpstream(err):
		logger.Warn("platform error", "error", err)
		Error(w, http.StatusBadGateway, ErrCodeUpstream, err.Error())

	default:
		InternalError(w, logger, err)
	}
	return true
}

func isUpstream(err error) bool {
	var apiErr *platform.APIError
	return errors.As(err, &apiErr) ||
		errors.Is(err, platform.ErrUnauthorized) ||
		errors.Is(err, platform.ErrUnavailable)
}
