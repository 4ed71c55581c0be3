// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go         — Handler с DI (сервис моделей, аудит, logger)
//   - routes.go          — регистрация маршрутов
//   - middleware.go      — middleware (recovery, logging, metrics)
//   - response.go        — унифицированные JSON-ответы и обработка ошибок
//   - dto.go             — Data Transfer Objects (request/response)
//   - model_handler.go   — обработчики для /apps/{app}/...
//   - session_handler.go — обработчики для /sessions и /apps/{app}/changes
//
// Все операции с моделью выполняются во временной working copy платформы;
// ветка выбирается параметром ?branch=.
package api
