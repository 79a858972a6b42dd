// Package orchestrator — ядро оркестрации пайплайна проектов.
//
// Orchestrator отвечает за:
//   - Валидированные переходы состояний проекта (TransitionState)
//   - Идемпотентные переходы через gateway по решению пользователя
//   - Дедупликацию запусков агентов (advisory lock + dedup записи)
//   - Политику retry агентов и диспетчеризацию через Runner
//   - Append-only аудит: state history, audit log, доменные события
//
// Ядро синхронно: никакой собственной фоновой работы, только
// request/response логика. Конкурентность приходит от независимых
// вызывающих (два HTTP запроса, человек против планировщика), поэтому
// все мутации статуса проекта линеаризуются блокировкой строки проекта
// на время validate-then-write (Store.WithProjectLock).
package orchestrator
