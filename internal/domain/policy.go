package domain

import "fmt"

// StreamConfig is the configuration of one stream as read from a policy source.
type StreamConfig struct {
	Name     string
	Type     StreamType
	Strategy RoutingStrategy
	IndexMin int
	IndexMax int
	Curves   map[DeviceCategory]CurvePoints
}

// BuildStream runs the configuration sequence for cfg: identifier, strategy,
// index range, then one profile per category.
func BuildStream(cfg StreamConfig) (*Stream, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("%w: stream name is required", ErrInvalidArgument)
	}
	for category := range cfg.Curves {
		if !category.Valid() {
			return nil, fmt.Errorf("%w: stream %q: unknown device category %s", ErrInvalidArgument, cfg.Name, category)
		}
	}
	s := NewStream(cfg.Name)
	if err := s.SetIdentifier(cfg.Type); err != nil {
		return nil, err
	}
	if err := s.Set(PropertyRoutingStrategy, cfg.Strategy); err != nil {
		return nil, err
	}
	if err := s.InitVolume(cfg.IndexMin, cfg.IndexMax); err != nil {
		return nil, err
	}
	for _, category := range AllDeviceCategories() {
		points, ok := cfg.Curves[category]
		if !ok {
			continue
		}
		if err := s.SetVolumeProfile(category, points); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// NewPolicyTable builds every stream, registers it and freezes the table.
func NewPolicyTable(configs []StreamConfig, defaultCategory DeviceCategory) (*StreamTable, error) {
	table := NewStreamTable()
	if err := table.SetDefaultCategory(defaultCategory); err != nil {
		return nil, err
	}
	for _, cfg := range configs {
		s, err := BuildStream(cfg)
		if err != nil {
			return nil, err
		}
		if err := table.Add(s); err != nil {
			return nil, err
		}
	}
	table.Freeze()
	return table, nil
}

// Configs converts the streams of t back into configuration values.
func (t *StreamTable) Configs() []StreamConfig {
	streams := t.Streams()
	out := make([]StreamConfig, 0, len(streams))
	for _, s := range streams {
		cfg := StreamConfig{
			Name:     s.Name(),
			Type:     s.Identifier(),
			Strategy: s.RoutingStrategy(),
			Curves:   make(map[DeviceCategory]CurvePoints),
		}
		cfg.IndexMin, cfg.IndexMax = s.IndexRange()
		for _, c := range s.Categories() {
			cfg.Curves[c], _ = s.VolumeProfile(c)
		}
		out = append(out, cfg)
	}
	return out
}

var (
	mediaCurve = CurvePoints{{1, -58.0}, {20, -40.0}, {60, -17.0}, {100, 0.0}}
	// speakers are boosted at the low end
	speakerMediaCurve = CurvePoints{{1, -56.0}, {20, -34.0}, {60, -11.0}, {100, 0.0}}
	sonificationCurve = CurvePoints{{1, -29.7}, {33, -20.1}, {66, -10.2}, {100, 0.0}}
	earpieceCurve     = CurvePoints{{0, -42.0}, {33, -28.0}, {66, -14.0}, {100, 0.0}}
	callCurve         = CurvePoints{{0, -24.0}, {33, -18.0}, {66, -12.0}, {100, -6.0}}
	fullScaleCurve    = CurvePoints{{0, 0.0}, {100, 0.0}}
)

// DefaultPolicy returns the built-in stream policy used when no policy file exists.
func DefaultPolicy() []StreamConfig {
	media := func(name string, t StreamType, strategy RoutingStrategy) StreamConfig {
		return StreamConfig{
			Name: name, Type: t, Strategy: strategy, IndexMin: 0, IndexMax: 100,
			Curves: map[DeviceCategory]CurvePoints{
				CategoryHeadset:  mediaCurve,
				CategorySpeaker:  speakerMediaCurve,
				CategoryEarpiece: mediaCurve,
				CategoryExtMedia: mediaCurve,
			},
		}
	}
	sonification := func(name string, t StreamType, strategy RoutingStrategy) StreamConfig {
		return StreamConfig{
			Name: name, Type: t, Strategy: strategy, IndexMin: 0, IndexMax: 100,
			Curves: map[DeviceCategory]CurvePoints{
				CategoryHeadset:  sonificationCurve,
				CategorySpeaker:  sonificationCurve,
				CategoryEarpiece: sonificationCurve,
				CategoryExtMedia: sonificationCurve,
			},
		}
	}

	return []StreamConfig{
		{
			Name: "voice_call", Type: StreamVoiceCall, Strategy: StrategyPhone, IndexMin: 0, IndexMax: 100,
			Curves: map[DeviceCategory]CurvePoints{
				CategoryHeadset:  callCurve,
				CategorySpeaker:  callCurve,
				CategoryEarpiece: earpieceCurve,
			},
		},
		sonification("system", StreamSystem, StrategySonification),
		sonification("ring", StreamRing, StrategySonification),
		media("music", StreamMusic, StrategyMedia),
		sonification("alarm", StreamAlarm, StrategySonification),
		sonification("notification", StreamNotification, StrategySonificationRespectful),
		media("tts", StreamTTS, StrategyTransmittedThroughSpeaker),
		media("accessibility", StreamAccessibility, StrategyAccessibility),
		{
			Name: "rerouting", Type: StreamRerouting, Strategy: StrategyRerouting, IndexMin: 0, IndexMax: 1,
			Curves: map[DeviceCategory]CurvePoints{
				CategorySpeaker: fullScaleCurve,
			},
		},
	}
}
