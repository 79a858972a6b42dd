// Package lock — advisory блокировки с TTL поверх разделяемого кэша.
//
// Блокировка — best-effort примитив взаимного исключения: атомарный
// set-if-absent с временем жизни. Она не является долговременной
// транзакционной блокировкой; долговременный барьер дедупликации —
// уникальный индекс dedup_keys в БД.
//
// Интерфейс Locker намеренно минимален (TryAcquire / Get / Release),
// чтобы backend был заменяем: в production — Redis (SETNX), в тестах и
// одноузловых запусках — InMemoryLocker.
package lock
