// Package platform — доступ к репозиторию моделей low-code платформы.
//
// Структура:
//   - platform.go — интерфейс Platform и WorkingCopy
//   - errors.go   — ошибки и APIError
//   - http.go     — HTTPClient: REST-клиент платформы
//   - memory.go   — Memory: платформа в памяти (тесты, локальная разработка)
//
// Протокол working copy:
//
//	POST   /v1/apps/{app}/working-copies        — создать working copy ветки
//	GET    /v1/working-copies/{wc}/model        — модель (model.Document)
//	GET    /v1/working-copies/{wc}/units/{unit} — полное описание микрофлоу
//	POST   /v1/working-copies/{wc}/changes      — применить изменения
//	POST   /v1/working-copies/{wc}/commit       — закоммитить в ветку
//	DELETE /v1/working-copies/{wc}              — удалить working copy
package platform
