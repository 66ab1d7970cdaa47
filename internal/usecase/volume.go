package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"streamvol/internal/domain"
	"streamvol/internal/logging"
	"streamvol/internal/metrics"
)

// VolumeUseCase is the primary port for volume policy operations.
// This represents the application's use cases.
type VolumeUseCase interface {
	Streams() []domain.StreamInfo
	Curves(stream string) (domain.StreamInfo, map[domain.DeviceCategory]domain.CurvePoints, error)
	Resolve(stream string, category domain.DeviceCategory, index int) (domain.Resolution, error)
	Apply(ctx context.Context, stream string, category domain.DeviceCategory, index int) (domain.Resolution, error)
	Snapshot() Snapshot
	Reload() error
	DefaultCategory() domain.DeviceCategory
}

// Snapshot represents a complete view of the service state.
type Snapshot struct {
	DefaultCategory domain.DeviceCategory
	Streams         []domain.StreamInfo
	Applied         map[string]domain.Resolution
	LoadedAt        time.Time
}

// volumeInteractor implements VolumeUseCase.
// It depends only on domain layer and secondary ports.
type volumeInteractor struct {
	repo       domain.PolicyRepository
	controller domain.GainController
	metrics    *metrics.Metrics

	mu       sync.RWMutex
	table    *domain.StreamTable
	loadedAt time.Time
	applied  map[string]domain.Resolution
}

// NewVolumeUseCase loads the policy through repo and returns the use case.
// A nil m registers metrics on a private registry.
func NewVolumeUseCase(
	repo domain.PolicyRepository,
	controller domain.GainController,
	m *metrics.Metrics,
) (VolumeUseCase, error) {
	if repo == nil || controller == nil {
		return nil, errors.New("repository and controller are required")
	}
	if m == nil {
		m = metrics.NewMetrics(prometheus.NewRegistry())
	}

	table, err := repo.Load()
	if err != nil {
		m.PolicyReloads.WithLabelValues("error").Inc()
		return nil, err
	}
	table.Freeze()
	m.PolicyReloads.WithLabelValues("ok").Inc()
	m.PolicyStreams.Set(float64(table.Len()))

	return &volumeInteractor{
		repo:       repo,
		controller: controller,
		metrics:    m,
		table:      table,
		loadedAt:   time.Now(),
		applied:    make(map[string]domain.Resolution),
	}, nil
}

func (v *volumeInteractor) current() *domain.StreamTable {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.table
}

// Streams lists the configured streams ordered by stream type.
func (v *volumeInteractor) Streams() []domain.StreamInfo {
	return infos(v.current())
}

func infos(table *domain.StreamTable) []domain.StreamInfo {
	streams := table.Streams()
	out := make([]domain.StreamInfo, 0, len(streams))
	for _, s := range streams {
		out = append(out, s.Info())
	}
	return out
}

// DefaultCategory returns the fallback category of the active policy. Callers
// use it when a request names no category.
func (v *volumeInteractor) DefaultCategory() domain.DeviceCategory {
	return v.current().DefaultCategory()
}

// Curves returns the stream summary and a copy of every registered curve.
func (v *volumeInteractor) Curves(stream string) (domain.StreamInfo, map[domain.DeviceCategory]domain.CurvePoints, error) {
	s, err := v.current().Lookup(stream)
	if err != nil {
		return domain.StreamInfo{}, nil, err
	}
	curves := make(map[domain.DeviceCategory]domain.CurvePoints)
	for _, c := range s.Categories() {
		curves[c], _ = s.VolumeProfile(c)
	}
	return s.Info(), curves, nil
}

// Resolve converts a UI index into a gain without touching the output.
func (v *volumeInteractor) Resolve(stream string, category domain.DeviceCategory, index int) (domain.Resolution, error) {
	if !category.Valid() {
		v.metrics.ResolutionErrors.WithLabelValues("invalid_category").Inc()
		return domain.Resolution{DB: domain.SilenceDB}, fmt.Errorf("%w: unknown device category %s", domain.ErrInvalidArgument, category)
	}

	table := v.current()
	s, err := table.Lookup(stream)
	if err != nil {
		v.metrics.ResolutionErrors.WithLabelValues("unknown_stream").Inc()
		return domain.Resolution{Stream: stream, Requested: category, Index: index, DB: domain.SilenceDB}, err
	}

	res, err := table.VolumeDb(s, category, index)
	if res.Fallback {
		v.metrics.Fallbacks.WithLabelValues(res.Stream, res.Requested.String()).Inc()
	}
	if err != nil {
		v.metrics.ResolutionErrors.WithLabelValues("no_curve").Inc()
		logging.Warnf("stream %s: %v", res.Stream, err)
		return res, err
	}
	v.metrics.Resolutions.WithLabelValues(res.Stream, res.Category.String()).Inc()
	logging.Tracef("resolve %s/%s index=%d clamped=%d -> %.3f dB (fallback=%t)",
		res.Stream, res.Category, res.Index, res.Clamped, res.DB, res.Fallback)
	return res, nil
}

// Apply resolves the gain and pushes it to the output controller.
func (v *volumeInteractor) Apply(ctx context.Context, stream string, category domain.DeviceCategory, index int) (domain.Resolution, error) {
	res, err := v.Resolve(stream, category, index)
	if err != nil {
		return res, err
	}

	// Execute side effect through secondary port
	if err := v.controller.ApplyGain(ctx, res); err != nil {
		v.metrics.GainApplyFailures.Inc()
		logging.Errorf("apply gain for %s: %v", res.Stream, err)
		return res, fmt.Errorf("apply gain for %s: %w", res.Stream, err)
	}

	v.metrics.ResolvedGain.WithLabelValues(res.Stream).Set(res.DB)
	v.mu.Lock()
	v.applied[res.Stream] = res
	v.mu.Unlock()
	logging.Infof("applied %s/%s index=%d -> %.2f dB", res.Stream, res.Category, res.Clamped, res.DB)
	return res, nil
}

// Snapshot returns the current service state.
func (v *volumeInteractor) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()

	applied := make(map[string]domain.Resolution, len(v.applied))
	for k, r := range v.applied {
		applied[k] = r
	}
	return Snapshot{
		DefaultCategory: v.table.DefaultCategory(),
		Streams:         infos(v.table),
		Applied:         applied,
		LoadedAt:        v.loadedAt,
	}
}

// Reload re-reads the policy and swaps it in. On failure the active policy is kept.
func (v *volumeInteractor) Reload() error {
	table, err := v.repo.Load()
	if err != nil {
		v.metrics.PolicyReloads.WithLabelValues("error").Inc()
		logging.Errorf("reload policy: %v", err)
		return err
	}
	table.Freeze()

	v.mu.Lock()
	v.table = table
	v.loadedAt = time.Now()
	for name := range v.applied {
		if _, ok := table.ByName(name); !ok {
			delete(v.applied, name)
		}
	}
	v.mu.Unlock()

	v.metrics.PolicyReloads.WithLabelValues("ok").Inc()
	v.metrics.PolicyStreams.Set(float64(table.Len()))
	logging.Infof("policy reloaded: %d streams", table.Len())
	return nil
}
