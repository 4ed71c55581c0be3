package locator

import "errors"

// Ошибки обхода. Наружу не возвращаются, только логируются.
var (
	// ErrMaxDepthExceeded — цепочка контейнеров длиннее MaxDepth (вероятно, цикл).
	ErrMaxDepthExceeded = errors.New("ancestor chain exceeds max depth")

	// ErrAccessorPanic — accessor элемента или контейнера вызвал panic.
	ErrAccessorPanic = errors.New("accessor panicked")
)
