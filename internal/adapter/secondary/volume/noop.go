package volume

import (
	"context"
	"fmt"

	"streamvol/internal/domain"
	"streamvol/internal/logging"
)

// NoopController implements domain.GainController by logging the gain only.
// Useful for testing or non-macOS environments.
type NoopController struct{}

// NewNoopController creates a new no-op gain controller.
func NewNoopController() *NoopController {
	return &NoopController{}
}

// ApplyGain logs the resolved gain and always succeeds.
func (n *NoopController) ApplyGain(_ context.Context, res domain.Resolution) error {
	logging.Infof("gain %s/%s index=%d -> %.2f dB", res.Stream, res.Category, res.Clamped, res.DB)
	return nil
}

// New returns the controller selected by name ("noop" or "applescript").
func New(name string) (domain.GainController, error) {
	switch name {
	case "", "noop":
		return NewNoopController(), nil
	case "applescript":
		return NewAppleScriptController(), nil
	default:
		return nil, fmt.Errorf("%w: unknown output controller %q", domain.ErrInvalidArgument, name)
	}
}
