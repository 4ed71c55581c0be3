// Package cli реализует утилиту командной строки modelproxy.
//
// CLI ходит в modelproxy API по HTTP и не импортирует внутренние пакеты:
// типы ответов продублированы в client.go.
//
// Группы команд:
//   - module: list
//   - entity: list, create
//   - microflow: list, show, create
//   - session: list
//   - change: list
//
// Команды модели требуют --app; --branch переопределяет ветку по умолчанию.
// Каждая группа создаётся фабрикой (NewModuleCmd и т.д.), которая получает
// clientFn и outputFn: Client и Output создаются лениво, после разбора
// persistent-флагов.
//
//	modelproxy --app sales-app microflow list --module Sales --json | jq .
package cli
