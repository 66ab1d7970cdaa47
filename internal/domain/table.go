package domain

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Resolution describes how a UI index was turned into a gain.
type Resolution struct {
	Stream    string
	Type      StreamType
	Requested DeviceCategory
	Category  DeviceCategory // category whose curve produced DB
	Fallback  bool
	Index     int
	Clamped   int
	DB        float64
}

// StreamTable owns the streams of a policy. Streams are added while the
// table is configuring; after Freeze the table and its streams are read-only
// and safe for concurrent use.
type StreamTable struct {
	mu              sync.RWMutex
	byName          map[string]*Stream
	byType          map[StreamType]*Stream
	defaultCategory DeviceCategory
	frozen          bool
}

// NewStreamTable creates an empty table that falls back to the speaker curve.
func NewStreamTable() *StreamTable {
	return &StreamTable{
		byName:          make(map[string]*Stream),
		byType:          make(map[StreamType]*Stream),
		defaultCategory: CategorySpeaker,
	}
}

// Add registers a configured stream. Names and identifiers must be unique.
func (t *StreamTable) Add(s *Stream) error {
	if s == nil {
		return fmt.Errorf("%w: nil stream", ErrInvalidArgument)
	}
	if err := s.Validate(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.frozen {
		return ErrFrozen
	}
	if _, ok := t.byName[s.Name()]; ok {
		return fmt.Errorf("%w: duplicate stream name %q", ErrInvalidArgument, s.Name())
	}
	if other, ok := t.byType[s.Identifier()]; ok {
		return fmt.Errorf("%w: stream type %s already used by %q", ErrInvalidArgument, s.Identifier(), other.Name())
	}
	t.byName[s.Name()] = s
	t.byType[s.Identifier()] = s
	return nil
}

// SetDefaultCategory selects the curve used when a stream lacks the requested one.
func (t *StreamTable) SetDefaultCategory(c DeviceCategory) error {
	if !c.Valid() {
		return fmt.Errorf("%w: unknown device category %s", ErrInvalidArgument, c)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.frozen {
		return ErrFrozen
	}
	t.defaultCategory = c
	return nil
}

// DefaultCategory returns the fallback device category.
func (t *StreamTable) DefaultCategory() DeviceCategory {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.defaultCategory
}

// Freeze ends configuration. It is idempotent.
func (t *StreamTable) Freeze() {
	t.mu.Lock()
	t.frozen = true
	t.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (t *StreamTable) Frozen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.frozen
}

// ByName returns the stream registered under name.
func (t *StreamTable) ByName(name string) (*Stream, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.byName[name]
	return s, ok
}

// ByType returns the stream registered for a stream type.
func (t *StreamTable) ByType(st StreamType) (*Stream, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.byType[st]
	return s, ok
}

// Lookup finds a stream by name first, then by stream-type text.
func (t *StreamTable) Lookup(key string) (*Stream, error) {
	if s, ok := t.ByName(key); ok {
		return s, nil
	}
	if st, err := ParseStreamType(key); err == nil {
		if s, ok := t.ByType(st); ok {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: stream %q", ErrNotFound, key)
}

// Streams returns every stream ordered by stream type.
func (t *StreamTable) Streams() []*Stream {
	t.mu.RLock()
	out := make([]*Stream, 0, len(t.byType))
	for _, s := range t.byType {
		out = append(out, s)
	}
	t.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier() < out[j].Identifier() })
	return out
}

// Len returns the number of streams.
func (t *StreamTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byName)
}

// VolumeDb resolves the gain of stream s for category and indexInUi. When s
// has no curve for category the default category is used instead and the
// result is marked as a fallback. If that curve is missing too the result
// carries SilenceDB and the error wraps ErrNotFound.
func (t *StreamTable) VolumeDb(s *Stream, category DeviceCategory, indexInUi int) (Resolution, error) {
	res := Resolution{
		Stream:    s.Name(),
		Type:      s.Identifier(),
		Requested: category,
		Category:  category,
		Index:     indexInUi,
		Clamped:   s.ClampIndex(indexInUi),
	}

	db, err := s.VolIndexToDb(category, indexInUi)
	if errors.Is(err, ErrNotFound) {
		fallback := t.DefaultCategory()
		if fallback != category {
			res.Category = fallback
			res.Fallback = true
			db, err = s.VolIndexToDb(fallback, indexInUi)
		}
	}
	res.DB = db
	return res, err
}
