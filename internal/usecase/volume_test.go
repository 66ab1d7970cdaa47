package usecase

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"streamvol/internal/domain"
	"streamvol/internal/metrics"
)

type stubRepository struct {
	configs []domain.StreamConfig
	err     error
	loads   int
}

func (r *stubRepository) Load() (*domain.StreamTable, error) {
	r.loads++
	if r.err != nil {
		return nil, r.err
	}
	return domain.NewPolicyTable(r.configs, domain.CategorySpeaker)
}

func (r *stubRepository) Save(*domain.StreamTable) error { return nil }

type mockController struct {
	mock.Mock
}

func (m *mockController) ApplyGain(ctx context.Context, res domain.Resolution) error {
	args := m.Called(ctx, res)
	return args.Error(0)
}

func musicConfig() domain.StreamConfig {
	return domain.StreamConfig{
		Name: "music", Type: domain.StreamMusic, Strategy: domain.StrategyMedia,
		IndexMin: 0, IndexMax: 100,
		Curves: map[domain.DeviceCategory]domain.CurvePoints{
			domain.CategorySpeaker: {{Index: 0, DB: -60}, {Index: 50, DB: -20}, {Index: 100, DB: 0}},
		},
	}
}

func newTestUseCase(t *testing.T, ctrl domain.GainController) (VolumeUseCase, *stubRepository, *metrics.Metrics) {
	t.Helper()
	repo := &stubRepository{configs: []domain.StreamConfig{musicConfig()}}
	m := metrics.NewMetrics(prometheus.NewRegistry())
	uc, err := NewVolumeUseCase(repo, ctrl, m)
	require.NoError(t, err)
	return uc, repo, m
}

func TestNewVolumeUseCase_Errors(t *testing.T) {
	_, err := NewVolumeUseCase(nil, &mockController{}, nil)
	assert.Error(t, err)

	boom := errors.New("disk on fire")
	_, err = NewVolumeUseCase(&stubRepository{err: boom}, &mockController{}, nil)
	assert.ErrorIs(t, err, boom)
}

func TestVolumeUseCase_Resolve(t *testing.T) {
	uc, _, m := newTestUseCase(t, &mockController{})

	res, err := uc.Resolve("music", domain.CategorySpeaker, 25)
	require.NoError(t, err)
	assert.InDelta(t, -40.0, res.DB, 1e-9)
	assert.False(t, res.Fallback)

	res, err = uc.Resolve("music", domain.CategoryHeadset, 150)
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, 0.0, res.DB)

	assert.Equal(t, domain.CategorySpeaker, uc.DefaultCategory())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fallbacks.WithLabelValues("music", "headset")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Resolutions.WithLabelValues("music", "speaker")))
}

func TestVolumeUseCase_Resolve_Errors(t *testing.T) {
	uc, _, m := newTestUseCase(t, &mockController{})

	res, err := uc.Resolve("podcast", domain.CategorySpeaker, 3)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.True(t, math.IsInf(res.DB, -1))

	_, err = uc.Resolve("music", domain.DeviceCategory(9), 3)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ResolutionErrors.WithLabelValues("unknown_stream")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ResolutionErrors.WithLabelValues("invalid_category")))
}

func TestVolumeUseCase_Apply(t *testing.T) {
	ctrl := &mockController{}
	ctrl.On("ApplyGain", mock.Anything, mock.MatchedBy(func(r domain.Resolution) bool {
		return r.Stream == "music" && r.Clamped == 50
	})).Return(nil).Once()

	uc, _, m := newTestUseCase(t, ctrl)

	res, err := uc.Apply(context.Background(), "music", domain.CategorySpeaker, 50)
	require.NoError(t, err)
	assert.Equal(t, -20.0, res.DB)
	ctrl.AssertExpectations(t)

	snap := uc.Snapshot()
	require.Contains(t, snap.Applied, "music")
	assert.Equal(t, res, snap.Applied["music"])
	assert.Equal(t, -20.0, testutil.ToFloat64(m.ResolvedGain.WithLabelValues("music")))
}

func TestVolumeUseCase_Apply_ControllerFailure(t *testing.T) {
	ctrl := &mockController{}
	boom := errors.New("osascript missing")
	ctrl.On("ApplyGain", mock.Anything, mock.Anything).Return(boom)

	uc, _, m := newTestUseCase(t, ctrl)

	_, err := uc.Apply(context.Background(), "music", domain.CategorySpeaker, 10)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, uc.Snapshot().Applied)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GainApplyFailures))
}

func TestVolumeUseCase_Apply_SkipsControllerOnResolveError(t *testing.T) {
	ctrl := &mockController{}
	uc, _, _ := newTestUseCase(t, ctrl)

	_, err := uc.Apply(context.Background(), "alarm", domain.CategorySpeaker, 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	ctrl.AssertNotCalled(t, "ApplyGain", mock.Anything, mock.Anything)
}

func TestVolumeUseCase_Curves(t *testing.T) {
	uc, _, _ := newTestUseCase(t, &mockController{})

	info, curves, err := uc.Curves("music")
	require.NoError(t, err)
	assert.Equal(t, domain.StreamMusic, info.Type)
	require.Contains(t, curves, domain.CategorySpeaker)
	assert.Len(t, curves[domain.CategorySpeaker], 3)

	_, _, err = uc.Curves("alarm")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVolumeUseCase_Reload(t *testing.T) {
	ctrl := &mockController{}
	ctrl.On("ApplyGain", mock.Anything, mock.Anything).Return(nil)
	uc, repo, m := newTestUseCase(t, ctrl)

	_, err := uc.Apply(context.Background(), "music", domain.CategorySpeaker, 10)
	require.NoError(t, err)

	alarm := musicConfig()
	alarm.Name, alarm.Type = "alarm", domain.StreamAlarm
	repo.configs = []domain.StreamConfig{alarm}
	require.NoError(t, uc.Reload())

	streams := uc.Streams()
	require.Len(t, streams, 1)
	assert.Equal(t, "alarm", streams[0].Name)
	assert.Empty(t, uc.Snapshot().Applied, "applied state of removed streams is dropped")

	repo.err = errors.New("bad yaml")
	assert.Error(t, uc.Reload())
	assert.Equal(t, "alarm", uc.Streams()[0].Name)

	assert.Equal(t, 3, repo.loads)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PolicyReloads.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PolicyReloads.WithLabelValues("error")))
}
