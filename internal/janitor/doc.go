// Package janitor реализует фоновое обслуживание хранилища.
//
// Единственная задача — периодическое удаление просроченных dedup
// записей. Журнал аудита, история переходов и доменные события
// append-only и никогда не чистятся.
package janitor
