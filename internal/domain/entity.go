package domain

import (
	"fmt"
	"strings"
)

// StreamType is the numeric stream-type code of a policy stream.
type StreamType int

const (
	// StreamUnset marks a stream whose identifier has not been assigned yet.
	StreamUnset StreamType = -2
	// StreamDefault is the wildcard sentinel; it is never a valid identifier.
	StreamDefault StreamType = -1
)

const (
	StreamVoiceCall StreamType = iota
	StreamSystem
	StreamRing
	StreamMusic
	StreamAlarm
	StreamNotification
	StreamBluetoothSCO
	StreamEnforcedAudible
	StreamDTMF
	StreamTTS
	StreamAccessibility
	StreamRerouting
	StreamPatch

	streamTypeCount = int(StreamPatch) + 1
)

var streamTypeNames = [...]string{
	"voice_call",
	"system",
	"ring",
	"music",
	"alarm",
	"notification",
	"bluetooth_sco",
	"enforced_audible",
	"dtmf",
	"tts",
	"accessibility",
	"rerouting",
	"patch",
}

// Valid reports whether t names a concrete stream type.
func (t StreamType) Valid() bool {
	return t >= 0 && int(t) < streamTypeCount
}

func (t StreamType) String() string {
	switch {
	case t.Valid():
		return streamTypeNames[t]
	case t == StreamDefault:
		return "default"
	case t == StreamUnset:
		return "unset"
	default:
		return fmt.Sprintf("stream(%d)", int(t))
	}
}

// ParseStreamType converts the text form ("music", "ring", ...) into a StreamType.
func ParseStreamType(s string) (StreamType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, name := range streamTypeNames {
		if name == key {
			return StreamType(i), nil
		}
	}
	return StreamUnset, fmt.Errorf("%w: unknown stream type %q", ErrInvalidArgument, s)
}

// RoutingStrategy tags the routing strategy a stream follows.
type RoutingStrategy int

const (
	StrategyMedia RoutingStrategy = iota
	StrategyPhone
	StrategySonification
	StrategySonificationRespectful
	StrategyDTMF
	StrategyEnforcedAudible
	StrategyTransmittedThroughSpeaker
	StrategyAccessibility
	StrategyRerouting

	strategyCount
)

var strategyNames = [...]string{
	"media",
	"phone",
	"sonification",
	"sonification_respectful",
	"dtmf",
	"enforced_audible",
	"transmitted_through_speaker",
	"accessibility",
	"rerouting",
}

// Valid reports whether s is a known strategy.
func (s RoutingStrategy) Valid() bool {
	return s >= 0 && s < strategyCount
}

func (s RoutingStrategy) String() string {
	if s.Valid() {
		return strategyNames[s]
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseRoutingStrategy converts the text form into a RoutingStrategy.
func ParseRoutingStrategy(s string) (RoutingStrategy, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, name := range strategyNames {
		if name == key {
			return RoutingStrategy(i), nil
		}
	}
	return StrategyMedia, fmt.Errorf("%w: unknown routing strategy %q", ErrInvalidArgument, s)
}

// DeviceCategory groups output devices that share a volume curve.
type DeviceCategory int

const (
	CategoryHeadset DeviceCategory = iota
	CategorySpeaker
	CategoryEarpiece
	CategoryExtMedia

	categoryCount
)

var categoryNames = [...]string{
	"headset",
	"speaker",
	"earpiece",
	"ext_media",
}

// Valid reports whether c is a known device category.
func (c DeviceCategory) Valid() bool {
	return c >= 0 && c < categoryCount
}

func (c DeviceCategory) String() string {
	if c.Valid() {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// ParseDeviceCategory converts the text form into a DeviceCategory.
func ParseDeviceCategory(s string) (DeviceCategory, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, name := range categoryNames {
		if name == key {
			return DeviceCategory(i), nil
		}
	}
	return CategorySpeaker, fmt.Errorf("%w: unknown device category %q", ErrInvalidArgument, s)
}

// AllDeviceCategories returns every known category in ascending order.
func AllDeviceCategories() []DeviceCategory {
	out := make([]DeviceCategory, 0, int(categoryCount))
	for c := DeviceCategory(0); c < categoryCount; c++ {
		out = append(out, c)
	}
	return out
}

// PropertyKind selects one of the properties reachable through Stream.Get/Set.
type PropertyKind int

const (
	PropertyRoutingStrategy PropertyKind = iota
	PropertyStreamType
	PropertyName
)

func (k PropertyKind) String() string {
	switch k {
	case PropertyRoutingStrategy:
		return "routing_strategy"
	case PropertyStreamType:
		return "stream_type"
	case PropertyName:
		return "name"
	default:
		return fmt.Sprintf("property(%d)", int(k))
	}
}

// StreamInfo is a read-only summary of a configured stream.
type StreamInfo struct {
	Name       string
	Type       StreamType
	Strategy   RoutingStrategy
	IndexMin   int
	IndexMax   int
	Categories []DeviceCategory
}
