// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go               — Handler с DI (ядро, репозитории, logger)
//   - routes.go                — регистрация маршрутов
//   - middleware.go            — middleware (logging, recovery, correlation id)
//   - response.go              — унифицированные JSON-ответы и обработка ошибок
//   - dto.go                   — Data Transfer Objects (request/response)
//   - project_handler.go       — обработчики для /projects и /requirements
//   - orchestration_handler.go — статус, журнал аудита, retry
//   - gateway_handler.go       — шлюз требований
//
// API — тонкий слой над оркестрационным ядром: вся логика переходов,
// идемпотентности и дедупликации живёт в internal/orchestrator.
package api
