package locator

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ebstat/sdkmendixtest/internal/domain"
)

// DefaultMaxDepth — ограничение длины цепочки контейнеров.
// Реальная вложенность папок на порядки меньше.
const DefaultMaxDepth = 256

// Container — узел иерархии контейнеров.
type Container interface {
	// Name возвращает имя контейнера.
	Name() string

	// Kind возвращает структурную роль контейнера.
	Kind() domain.Kind

	// Container возвращает родительский контейнер.
	// (nil, nil) — корень модели.
	Container() (Container, error)
}

// Element — элемент модели, для которого ищется модуль.
type Element interface {
	// Name возвращает имя элемента (может быть пустым).
	Name() string

	// QualifiedName возвращает "Module.Name" или пустую строку.
	QualifiedName() string

	// Container возвращает контейнер элемента. (nil, nil) — контейнера нет.
	Container() (Container, error)

	// DirectOwner возвращает модуль-владелец, если модель хранит его явно.
	// (nil, nil) — ссылки нет.
	DirectOwner() (Container, error)
}

// Strategy — имя стратегии, определившей модуль.
type Strategy string

const (
	StrategyDirectOwner   Strategy = "direct_owner"
	StrategyAncestorWalk  Strategy = "ancestor_walk"
	StrategyQualifiedName Strategy = "qualified_name"

	// StrategyUnresolved — ни одна стратегия не сработала.
	StrategyUnresolved Strategy = "unresolved"

	// StrategyFault — при чтении атрибутов произошла ошибка.
	StrategyFault Strategy = "fault"
)

// Resolution — результат определения модуля.
type Resolution struct {
	// Name — имя модуля. Пустое, если OK == false.
	Name string

	// OK — модуль определён.
	OK bool

	// Strategy — стратегия, давшая результат.
	Strategy Strategy
}

// Config — конфигурация Locator.
type Config struct {
	// GroupKind — тип контейнера-владельца. По умолчанию domain.GroupKind.
	GroupKind domain.Kind

	// Delimiter — разделитель qualified name. По умолчанию ".".
	Delimiter string

	// MaxDepth — максимум шагов при подъёме по контейнерам.
	MaxDepth int

	// Logger — логгер для предупреждений об ошибках чтения.
	Logger *slog.Logger

	// Resolutions — счётчик результатов по стратегиям (опционально).
	Resolutions *prometheus.CounterVec
}

// attempt — одна стратегия: (имя, найдено, ошибка чтения).
type attempt struct {
	strategy Strategy
	fn       func(Element) (string, bool, error)
}

// Locator определяет модуль-владелец элементов.
// Не хранит изменяемого состояния, безопасен для конкурентного использования.
type Locator struct {
	groupKind   domain.Kind
	delimiter   string
	maxDepth    int
	logger      *slog.Logger
	resolutions *prometheus.CounterVec
	attempts    []attempt
}

// New создаёт Locator.
func New(cfg Config) *Locator {
	l := &Locator{
		groupKind:   cfg.GroupKind,
		delimiter:   cfg.Delimiter,
		maxDepth:    cfg.MaxDepth,
		logger:      cfg.Logger,
		resolutions: cfg.Resolutions,
	}
	if l.groupKind == "" {
		l.groupKind = domain.GroupKind
	}
	if l.delimiter == "" {
		l.delimiter = domain.QualifiedNameDelimiter
	}
	if l.maxDepth <= 0 {
		l.maxDepth = DefaultMaxDepth
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}

	// Порядок важен: эвристика по имени только после структурных стратегий.
	l.attempts = []attempt{
		{StrategyDirectOwner, l.directOwner},
		{StrategyAncestorWalk, l.ancestorWalk},
		{StrategyQualifiedName, l.qualifiedName},
	}
	return l
}

// Resolve возвращает имя модуля-владельца элемента.
// false — модуль определить не удалось (в том числе из-за ошибки чтения).
func (l *Locator) Resolve(el Element) (string, bool) {
	res := l.ResolveDetailed(el)
	return res.Name, res.OK
}

// ResolveDetailed — как Resolve, но дополнительно сообщает стратегию.
func (l *Locator) ResolveDetailed(el Element) (res Resolution) {
	defer func() {
		if r := recover(); r != nil {
			l.fault(el, fmt.Errorf("%w: %v", ErrAccessorPanic, r))
			res = Resolution{Strategy: StrategyFault}
		}
		l.observe(res.Strategy)
	}()

	if el == nil {
		return Resolution{Strategy: StrategyUnresolved}
	}

	for _, a := range l.attempts {
		name, ok, err := a.fn(el)
		if err != nil {
			l.fault(el, fmt.Errorf("%s: %w", a.strategy, err))
			return Resolution{Strategy: StrategyFault}
		}
		if ok {
			return Resolution{Name: name, OK: true, Strategy: a.strategy}
		}
	}

	return Resolution{Strategy: StrategyUnresolved}
}

// ResolveAll определяет модули для набора элементов.
// Результат всегда той же длины, что и вход.
func (l *Locator) ResolveAll(elements []Element) []Resolution {
	out := make([]Resolution, len(elements))
	for i, el := range elements {
		out[i] = l.ResolveDetailed(el)
	}
	return out
}

// directOwner — стратегия 1: явная ссылка на модуль.
func (l *Locator) directOwner(el Element) (string, bool, error) {
	owner, err := el.DirectOwner()
	if err != nil {
		return "", false, err
	}
	if owner == nil {
		return "", false, nil
	}
	return owner.Name(), true, nil
}

// ancestorWalk — стратегия 2: подъём по контейнерам до узла groupKind.
func (l *Locator) ancestorWalk(el Element) (string, bool, error) {
	node, err := el.Container()
	if err != nil {
		return "", false, err
	}

	for depth := 0; node != nil; depth++ {
		if depth >= l.maxDepth {
			return "", false, fmt.Errorf("%w (%d)", ErrMaxDepthExceeded, l.maxDepth)
		}
		if node.Kind() == l.groupKind {
			return node.Name(), true, nil
		}
		if node, err = node.Container(); err != nil {
			return "", false, err
		}
	}

	return "", false, nil
}

// qualifiedName — стратегия 3: первый сегмент qualified name.
// Строка без разделителя не считается результатом.
func (l *Locator) qualifiedName(el Element) (string, bool, error) {
	head, _, found := strings.Cut(el.QualifiedName(), l.delimiter)
	if !found || head == "" {
		return "", false, nil
	}
	return head, true, nil
}

// fault логирует ошибку чтения атрибутов элемента.
func (l *Locator) fault(el Element, err error) {
	l.logger.Warn("cannot resolve module for element",
		"element", safeName(el),
		"error", err,
	)
}

func (l *Locator) observe(s Strategy) {
	if l.resolutions != nil {
		l.resolutions.WithLabelValues(string(s)).Inc()
	}
}

// safeName читает имя элемента для логов; сам Name() тоже может упасть.
func safeName(el Element) (name string) {
	defer func() {
		if recover() != nil {
			name = "<unreadable>"
		}
	}()
	if el == nil {
		return "<nil>"
	}
	return el.Name()
}
