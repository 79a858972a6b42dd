// Package fsm — чистая валидация переходов пайплайна.
//
// fsm отвечает за:
//   - Таблицу допустимых переходов между состояниями проекта
//   - Проверку терминальности состояния
//   - Таблицу разрешений на retry агентов по состояниям
//   - Детерминированный хэш входных данных для дедупликации
//
// Пакет не делает I/O, не зависит от часов и случайности: один и тот же
// вход всегда даёт один и тот же результат, в том числе между рестартами
// процесса.
package fsm
