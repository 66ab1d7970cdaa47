package domain

import (
	"fmt"
	"sort"
)

// noCopy makes `go vet` report Stream values that are copied after first use.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Stream holds the volume policy of one stream type: its identity, the
// routing strategy it follows, the UI index range and one volume curve per
// device category.
//
// A Stream is configured once (identifier, strategy, range, profiles) and is
// then only read. It has no internal locking: writers must be serialized by
// the owner, readers may run concurrently once configuration is complete.
// Streams are always handled through a pointer.
type Stream struct {
	noCopy noCopy

	name       string
	identifier StreamType
	strategy   RoutingStrategy
	indexMin   int
	indexMax   int
	rangeSet   bool
	profiles   map[DeviceCategory]CurvePoints
}

// NewStream creates a stream named name. The index range starts as [0,1]
// and must be set with InitVolume before the stream is queried.
func NewStream(name string) *Stream {
	return &Stream{
		name:       name,
		identifier: StreamUnset,
		strategy:   StrategyMedia,
		indexMin:   0,
		indexMax:   1,
		profiles:   make(map[DeviceCategory]CurvePoints),
	}
}

// Name returns the literal identifier of the stream.
func (s *Stream) Name() string { return s.name }

// Identifier returns the stream-type code, StreamUnset until SetIdentifier succeeds.
func (s *Stream) Identifier() StreamType { return s.identifier }

// SetIdentifier stores the stream-type code. Invalid codes and the wildcard
// sentinel are rejected and the previous identifier is kept.
func (s *Stream) SetIdentifier(id StreamType) error {
	if !id.Valid() {
		return fmt.Errorf("%w: stream %q: identifier %s is not a concrete stream type",
			ErrInvalidArgument, s.name, id)
	}
	s.identifier = id
	return nil
}

// RoutingStrategy returns the applicable routing strategy.
func (s *Stream) RoutingStrategy() RoutingStrategy { return s.strategy }

// SetRoutingStrategy replaces the applicable routing strategy.
func (s *Stream) SetRoutingStrategy(strategy RoutingStrategy) error {
	if !strategy.Valid() {
		return fmt.Errorf("%w: stream %q: unknown routing strategy %s", ErrInvalidArgument, s.name, strategy)
	}
	s.strategy = strategy
	return nil
}

// Get returns the value of the property selected by kind:
// RoutingStrategy, StreamType or the name as a string.
func (s *Stream) Get(kind PropertyKind) (any, error) {
	switch kind {
	case PropertyRoutingStrategy:
		return s.strategy, nil
	case PropertyStreamType:
		return s.identifier, nil
	case PropertyName:
		return s.name, nil
	default:
		return nil, fmt.Errorf("%w: get %s on stream %q", ErrUnsupportedProperty, kind, s.name)
	}
}

// Set assigns the property selected by kind. The value must have the
// property's type. The name is fixed at construction and cannot be set.
func (s *Stream) Set(kind PropertyKind, value any) error {
	switch kind {
	case PropertyRoutingStrategy:
		if v, ok := value.(RoutingStrategy); ok {
			return s.SetRoutingStrategy(v)
		}
	case PropertyStreamType:
		if v, ok := value.(StreamType); ok {
			return s.SetIdentifier(v)
		}
	}
	return fmt.Errorf("%w: set %s to %T on stream %q", ErrUnsupportedProperty, kind, value, s.name)
}

// InitVolume sets the UI index range. indexMin must be lower than indexMax;
// otherwise the previous range is kept.
func (s *Stream) InitVolume(indexMin, indexMax int) error {
	if indexMin >= indexMax {
		return fmt.Errorf("%w: stream %q: index range [%d,%d] is empty",
			ErrInvalidArgument, s.name, indexMin, indexMax)
	}
	s.indexMin = indexMin
	s.indexMax = indexMax
	s.rangeSet = true
	return nil
}

// IndexRange returns the UI index bounds.
func (s *Stream) IndexRange() (indexMin, indexMax int) {
	return s.indexMin, s.indexMax
}

// SetVolumeProfile replaces the curve of category with a copy of points.
func (s *Stream) SetVolumeProfile(category DeviceCategory, points CurvePoints) error {
	if err := points.Validate(); err != nil {
		return fmt.Errorf("stream %q, category %s: %w", s.name, category, err)
	}
	s.profiles[category] = points.Clone()
	return nil
}

// VolumeProfile returns a copy of the curve registered for category.
func (s *Stream) VolumeProfile(category DeviceCategory) (CurvePoints, bool) {
	points, ok := s.profiles[category]
	if !ok {
		return nil, false
	}
	return points.Clone(), true
}

// Categories lists the device categories that have a curve, in ascending order.
func (s *Stream) Categories() []DeviceCategory {
	out := make([]DeviceCategory, 0, len(s.profiles))
	for c := range s.profiles {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// VolIndexToDb converts a UI volume index into a gain in dB using the curve
// of category. The index is clamped to the configured range first.
//
// A category without a curve yields SilenceDB and an error wrapping
// ErrNotFound; the caller decides on any fallback.
func (s *Stream) VolIndexToDb(category DeviceCategory, indexInUi int) (float64, error) {
	points, ok := s.profiles[category]
	if !ok {
		return SilenceDB, fmt.Errorf("%w: stream %q has no volume profile for %s", ErrNotFound, s.name, category)
	}
	if len(points) == 0 {
		return SilenceDB, fmt.Errorf("%w: stream %q has an empty volume profile for %s",
			ErrInvalidArgument, s.name, category)
	}
	return points.Interpolate(s.ClampIndex(indexInUi)), nil
}

// ClampIndex saturates index to the UI range.
func (s *Stream) ClampIndex(index int) int {
	if index < s.indexMin {
		return s.indexMin
	}
	if index > s.indexMax {
		return s.indexMax
	}
	return index
}

// Validate reports whether configuration of the stream is complete.
func (s *Stream) Validate() error {
	if !s.identifier.Valid() {
		return fmt.Errorf("%w: stream %q has no identifier", ErrInvalidArgument, s.name)
	}
	if !s.rangeSet {
		return fmt.Errorf("%w: stream %q: index range not initialized", ErrInvalidArgument, s.name)
	}
	if len(s.profiles) == 0 {
		return fmt.Errorf("%w: stream %q has no volume profile", ErrInvalidArgument, s.name)
	}
	return nil
}

// Info returns a summary of the stream.
func (s *Stream) Info() StreamInfo {
	return StreamInfo{
		Name:       s.name,
		Type:       s.identifier,
		Strategy:   s.strategy,
		IndexMin:   s.indexMin,
		IndexMax:   s.indexMax,
		Categories: s.Categories(),
	}
}
