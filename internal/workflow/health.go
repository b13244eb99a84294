package workflow

import (
	"context"

	"redub/internal/stage"
)

// StageHealth runs each configured stage's health check in pipeline order.
func (m *Manager) StageHealth(ctx context.Context) []stage.Health {
	m.mu.RLock()
	stages := make([]pipelineStage, len(m.stages))
	copy(stages, m.stages)
	m.mu.RUnlock()

	results := make([]stage.Health, 0, len(stages))
	for _, stg := range stages {
		results = append(results, stg.handler.HealthCheck(ctx))
	}
	return results
}
