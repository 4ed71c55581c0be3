package domain

// Kind — дискриминатор структурной роли узла модели.
type Kind string

// Типы узлов модели приложения.
const (
	KindProject     Kind = "project"
	KindModule      Kind = "module"
	KindFolder      Kind = "folder"
	KindDomainModel Kind = "domain_model"
	KindEntity      Kind = "entity"
	KindMicroflow   Kind = "microflow"
)

// GroupKind — тип контейнера, который считается "владельцем" элемента.
// Для модели приложения это модуль.
const GroupKind = KindModule

// UnresolvedModule — метка для элементов, модуль которых определить не удалось.
//
// Угловые скобки недопустимы в имени модуля, поэтому метка не совпадёт
// ни с одним реальным модулем.
const UnresolvedModule = "<unresolved>"

// QualifiedNameDelimiter — разделитель сегментов qualified name ("Sales.Order").
const QualifiedNameDelimiter = "."

// IsValid проверяет, что kind известен.
func (k Kind) IsValid() bool {
	switch k {
	case KindProject, KindModule, KindFolder, KindDomainModel, KindEntity, KindMicroflow:
		return true
	default:
		return false
	}
}
