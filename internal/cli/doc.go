// Package cli реализует инструмент командной строки Conductor.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Conductor API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется для управления проектами, требованиями,
// gateway-решениями и повторными запусками агентов.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Conductor API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	projects, err := client.ListProjects()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: conductor project list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - project: list, create, show, status, req-add, req-list
//   - gateway: finalize, plan, validate, history
//   - retry: повторный запуск агента
//   - audit: просмотр журнала аудита с фильтрацией
//
// Каждая группа создаётся через фабричную функцию (NewProjectCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
