// Package agent связывает оркестрационное ядро с выполнением агентов.
//
// Ядро ставит запуски агентов в очередь через QueueRunner (agents.dispatch),
// conductor-agentd потребляет её: фиксирует старт, вызывает внешний
// HTTP-сервис агента, записывает результат в dedup запись и журнал
// аудита и переводит проект в состояние завершения агента.
//
// Само выполнение агентов (LLM, анализ кода) живёт во внешних сервисах;
// этот пакет отвечает только за доставку, учёт и переход состояния.
package agent
