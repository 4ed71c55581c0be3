// Package service реализует операции API поверх платформы моделей.
//
// Каждый вызов ModelService проходит один и тот же путь:
//
//	создать working copy → записать сессию → загрузить модель →
//	выполнить операцию → закоммитить (если были изменения) →
//	опубликовать событие → удалить working copy → завершить сессию
//
// Working copy удаляется всегда, даже если операция или коммит упали,
// и даже если контекст запроса уже отменён.
package service
