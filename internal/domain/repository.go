package domain

import "context"

// PolicyRepository is a secondary port that loads and persists the stream policy.
// This interface is defined in the domain layer and implemented by adapters.
type PolicyRepository interface {
	Load() (*StreamTable, error)
	Save(table *StreamTable) error
}

// GainController is a secondary port that pushes a resolved gain to the output.
// This interface is defined in the domain layer and implemented by adapters.
type GainController interface {
	ApplyGain(ctx context.Context, res Resolution) error
}
