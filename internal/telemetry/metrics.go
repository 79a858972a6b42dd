package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики оркестрационного ядра.
//
// Регистрируются в глобальном реестре prometheus; каждый бинарник
// отдаёт их через promhttp на /metrics.
var (
	// StateTransitions — принятые переходы состояний.
	StateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conductor_state_transitions_total",
		Help: "Accepted project state transitions.",
	}, []string{"from_state", "to_state"})

	// GatewayRequests — запросы через gateway по действию и исходу.
	// outcome: applied | replayed | rejected
	GatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conductor_gateway_requests_total",
		Help: "Gateway transition requests by action and outcome.",
	}, []string{"action", "outcome"})

	// DedupChecks — проверки дедупликации по исходу.
	// outcome: new | duplicate
	DedupChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conductor_dedup_checks_total",
		Help: "Deduplication checks by outcome.",
	}, []string{"agent", "outcome"})

	// RetryDispatches — попытки retry по агенту и статусу.
	// status: queued | duplicate | cached | failed
	RetryDispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conductor_retry_dispatches_total",
		Help: "Agent retry attempts by agent and dispatch status.",
	}, []string{"agent", "status"})

	// DedupEntriesPruned — удалённые janitor'ом просроченные dedup записи.
	DedupEntriesPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conductor_dedup_entries_pruned_total",
		Help: "Expired dedup entries removed by the janitor.",
	})

	// AgentExecutions — завершённые выполнения агентов.
	// result: completed | failed
	AgentExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conductor_agent_executions_total",
		Help: "Agent executions recorded by result.",
	}, []string{"agent", "result"})
)
