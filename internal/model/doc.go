// Package model — граф модели приложения, полученной с платформы.
//
// Структура:
//   - document.go — wire-формат модели (плоский список units со ссылками containerId)
//   - model.go    — Model: индекс units, запросы (модули, сущности, микрофлоу)
//   - unit.go     — Unit и Entity, реализующие locator.Element/locator.Container
//   - mutate.go   — локальные изменения и их описание в виде Change для платформы
//   - errors.go   — ошибки пакета
//
// Ссылки на контейнер хранятся как ID и разрешаются через индекс модели:
// дочерний узел не владеет родителем. Битая ссылка обнаруживается
// только при обращении к ней (ErrDanglingReference), поскольку платформа
// может отдать частично загруженную модель.
package model
