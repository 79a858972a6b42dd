// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений в очереди
//   - consumer.go   — потребление сообщений из очередей
//
// Типы сообщений:
//   - agent.dispatch — запуск агента передан в работу
//
// Exchanges:
//   - conductor.agents — диспетчеризация агентов
//   - conductor.dlq    — dead letter queue
//
// Публикация agent.dispatch — это узкий интерфейс диспетчеризации
// оркестрационного ядра: само выполнение агентов живёт в conductor-agentd
// и за пределами ядра.
package mq
