package domain

// SessionStatus — статус сессии working copy.
//
// Жизненный цикл:
//
//	OPEN → COMMITTED
//	     ↘ DISCARDED (только чтение, изменения не сохранялись)
//	     ↘ FAILED    (ошибка во время обработки запроса)
//	     ↘ EXPIRED   (working copy удалена janitor'ом по TTL)
type SessionStatus string

const (
	// SessionStatusOpen — working copy создана и ещё используется.
	SessionStatusOpen SessionStatus = "OPEN"

	// SessionStatusCommitted — изменения закоммичены в ветку.
	SessionStatusCommitted SessionStatus = "COMMITTED"

	// SessionStatusDiscarded — working copy удалена без коммита.
	SessionStatusDiscarded SessionStatus = "DISCARDED"

	// SessionStatusFailed — запрос завершился ошибкой.
	SessionStatusFailed SessionStatus = "FAILED"

	// SessionStatusExpired — сессия не была закрыта и удалена по TTL.
	SessionStatusExpired SessionStatus = "EXPIRED"
)

// IsTerminal возвращает true, если статус финальный.
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case SessionStatusCommitted, SessionStatusDiscarded, SessionStatusFailed, SessionStatusExpired:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление SessionStatus.
func (s SessionStatus) String() string {
	return string(s)
}

// ParseSessionStatus парсит строку в SessionStatus.
// Второе значение false, если статус неизвестен.
func ParseSessionStatus(s string) (SessionStatus, bool) {
	switch SessionStatus(s) {
	case SessionStatusOpen, SessionStatusCommitted, SessionStatusDiscarded,
		SessionStatusFailed, SessionStatusExpired:
		return SessionStatus(s), true
	default:
		return "", false
	}
}
