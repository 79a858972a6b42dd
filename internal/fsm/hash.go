package fsm

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/shaiso/Conductor/internal/domain"
)

// hashEnvelope — каноническая форма входа для хэширования.
// encoding/json сериализует ключи map в отсортированном порядке и без
// лишних пробелов, поэтому эквивалентные входы с разным порядком ключей
// дают одинаковый байтовый поток.
type hashEnvelope struct {
	Agent string         `json:"agent"`
	Data  map[string]any `json:"data"`
}

// ComputeInputHash вычисляет детерминированный SHA-256 хэш пары
// (agent, input) для дедупликации запусков.
//
// Хэш стабилен между рестартами процесса и не зависит от порядка ключей
// во входной map. Изменение любого значения или типа агента меняет хэш.
func ComputeInputHash(agent domain.AgentType, input map[string]any) (string, error) {
	if input == nil {
		input = map[string]any{}
	}

	canonical, err := json.Marshal(hashEnvelope{
		Agent: agent.String(),
		Data:  input,
	})
	if err != nil {
		return "", fmt.Errorf("marshal dedup input: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
