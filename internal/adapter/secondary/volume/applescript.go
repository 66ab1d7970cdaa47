package volume

import (
	"context"
	"fmt"
	"math"
	"os/exec"

	"streamvol/internal/domain"
)

// AppleScriptController implements domain.GainController using macOS osascript.
// This is a secondary adapter.
type AppleScriptController struct {
	run func(ctx context.Context, script string) ([]byte, error)
}

// NewAppleScriptController creates a new AppleScript gain controller.
func NewAppleScriptController() *AppleScriptController {
	return &AppleScriptController{run: runOsascript}
}

func runOsascript(ctx context.Context, script string) ([]byte, error) {
	return exec.CommandContext(ctx, "osascript", "-e", script).CombinedOutput()
}

// ApplyGain sets the system output volume to the amplitude matching res.DB.
func (a *AppleScriptController) ApplyGain(ctx context.Context, res domain.Resolution) error {
	percent := DBToPercent(res.DB)
	output, err := a.run(ctx, fmt.Sprintf("set volume output volume %d", percent))
	if err != nil {
		return fmt.Errorf("osascript failed: %w, output: %s", err, string(output))
	}
	return nil
}

// DBToPercent converts a gain in dB to a linear amplitude percentage (0-100).
func DBToPercent(db float64) int {
	if math.IsInf(db, -1) || math.IsNaN(db) {
		return 0
	}
	p := 100 * math.Pow(10, db/20)
	if p > 100 {
		return 100
	}
	return int(math.Round(p))
}
