// Package locator определяет модуль-владелец элемента модели.
//
// Элемент (микрофлоу, сущность) лежит где-то внутри иерархии контейнеров:
// проект → модуль → папки → ... → элемент. Locator находит имя модуля,
// перебирая стратегии в фиксированном порядке:
//
//  1. direct_owner   — явная ссылка элемента на модуль
//  2. ancestor_walk  — подъём по цепочке контейнеров до узла GroupKind
//  3. qualified_name — первый сегмент "Module.Name"
//
// Первая успешная стратегия побеждает. Если ни одна не сработала,
// результат — "не определено", а не ошибка.
//
// Ошибки чтения атрибутов (частично загруженный элемент, битая ссылка,
// panic в accessor'е) перехватываются, логируются с именем элемента
// и превращаются в "не определено". Вызывающий код, перечисляющий
// много элементов, никогда не падает из-за одного плохого.
//
// Использование:
//
//	loc := locator.New(locator.Config{Logger: logger})
//	if module, ok := loc.Resolve(mf); ok {
//	    ...
//	}
package locator
