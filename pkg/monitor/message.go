// Package monitor decodes the binary telemetry frames the device pushes while a
// pad is monitored.
//
// Frame layout (little endian):
//
//	[1]  pad index
//	[3]  velocities (int8 per zone)
//	[3]  hit flags
//	[1]  choked flag
//	[6]  threshold min (uint16 per zone)
//	[6]  threshold max (uint16 per zone)
//	[2]  trigger start index (int16, -1 = none)
//	[2]  trigger end index (int16, -1 = none)
//	[4]  latency in µs
//	[1]  pad type ordinal
//	[1]  zones type ordinal
//	[1]  choke type ordinal
//	[6n] history entries: [2] µs since previous, [1] gap flag, [3] zone values
package monitor

import (
	"encoding/binary"
	"math"
	"sync/atomic"
	"time"

	"github.com/automatedhome/eavesdrum-bridge/pkg/types"
)

const (
	HeaderSize       = 31
	HistoryEntrySize = 6
	Zones            = 3

	maxVelocity = 127
	noIndex     = -1
)

type HistoryEntry struct {
	TimeSincePreviousUs uint16   `json:"timeUntilPreviousUs"`
	IsGap               bool     `json:"isGap"`
	Values              [3]uint8 `json:"values"`
}

// Message is one decoded telemetry frame. It is not modified after decoding.
type Message struct {
	PadIndex          uint8           `json:"padIndex"`
	Velocities        [3]int8         `json:"velocities"`
	Hits              [3]uint8        `json:"hits"`
	IsChoked          bool            `json:"isChoked"`
	ThresholdsMin     [3]uint16       `json:"thresholdsMin"`
	ThresholdsMax     [3]uint16       `json:"thresholdsMax"`
	TriggerStartIndex int16           `json:"triggerStartIndex"`
	TriggerEndIndex   int16           `json:"triggerEndIndex"`
	LatencyUs         uint32          `json:"latencyUs"`
	PadType           types.PadType   `json:"padType"`
	ZonesType         types.ZonesType `json:"zonesType"`
	ChokeType         types.ChokeType `json:"chokeType"`
	History           []HistoryEntry  `json:"history"`
}

// Decode parses a complete frame. Failures are *DecodeError values wrapping ErrMalformedFrame.
func Decode(data []byte) (*Message, error) {
	m := &Message{}
	if err := m.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Message) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return &DecodeError{Offset: len(data), Reason: "frame shorter than header"}
	}
	if rest := len(data) - HeaderSize; rest%HistoryEntrySize != 0 {
		return &DecodeError{Offset: HeaderSize, Reason: "trailing bytes are not a multiple of the history entry size"}
	}

	le := binary.LittleEndian
	var out Message
	off := 0

	out.PadIndex = data[off]
	off++
	for i := 0; i < Zones; i++ {
		out.Velocities[i] = int8(data[off+i])
	}
	off += Zones
	copy(out.Hits[:], data[off:off+Zones])
	off += Zones
	out.IsChoked = data[off] != 0
	off++
	for i := 0; i < Zones; i++ {
		out.ThresholdsMin[i] = le.Uint16(data[off+2*i:])
	}
	off += 2 * Zones
	for i := 0; i < Zones; i++ {
		out.ThresholdsMax[i] = le.Uint16(data[off+2*i:])
	}
	off += 2 * Zones
	out.TriggerStartIndex = int16(le.Uint16(data[off:]))
	off += 2
	out.TriggerEndIndex = int16(le.Uint16(data[off:]))
	off += 2
	out.LatencyUs = le.Uint32(data[off:])
	off += 4

	var err error
	if out.PadType, err = types.PadTypeFromOrdinal(data[off]); err != nil {
		return &DecodeError{Offset: off, Reason: "invalid pad type", Err: err}
	}
	off++
	if out.ZonesType, err = types.ZonesTypeFromOrdinal(data[off]); err != nil {
		return &DecodeError{Offset: off, Reason: "invalid zones type", Err: err}
	}
	off++
	if out.ChokeType, err = types.ChokeTypeFromOrdinal(data[off]); err != nil {
		return &DecodeError{Offset: off, Reason: "invalid choke type", Err: err}
	}
	off++

	out.History = make([]HistoryEntry, 0, (len(data)-off)/HistoryEntrySize)
	for ; off < len(data); off += HistoryEntrySize {
		e := HistoryEntry{
			TimeSincePreviousUs: le.Uint16(data[off:]),
			IsGap:               data[off+2] != 0,
		}
		copy(e.Values[:], data[off+3:off+HistoryEntrySize])
		out.History = append(out.History, e)
	}

	*m = out
	return nil
}

// MarshalBinary encodes m in the device wire format.
func (m *Message) MarshalBinary() ([]byte, error) {
	padType, ok := m.PadType.Ordinal()
	if !ok {
		return nil, &DecodeError{Reason: "unknown pad type " + string(m.PadType)}
	}
	zonesType, ok := m.ZonesType.Ordinal()
	if !ok {
		return nil, &DecodeError{Reason: "unknown zones type " + string(m.ZonesType)}
	}
	chokeType, ok := m.ChokeType.Ordinal()
	if !ok {
		return nil, &DecodeError{Reason: "unknown choke type " + string(m.ChokeType)}
	}

	le := binary.LittleEndian
	buf := make([]byte, 0, HeaderSize+HistoryEntrySize*len(m.History))
	buf = append(buf, m.PadIndex)
	for _, v := range m.Velocities {
		buf = append(buf, byte(v))
	}
	buf = append(buf, m.Hits[:]...)
	buf = append(buf, boolByte(m.IsChoked))
	for _, t := range m.ThresholdsMin {
		buf = le.AppendUint16(buf, t)
	}
	for _, t := range m.ThresholdsMax {
		buf = le.AppendUint16(buf, t)
	}
	buf = le.AppendUint16(buf, uint16(m.TriggerStartIndex))
	buf = le.AppendUint16(buf, uint16(m.TriggerEndIndex))
	buf = le.AppendUint32(buf, m.LatencyUs)
	buf = append(buf, padType, zonesType, chokeType)
	for _, e := range m.History {
		buf = le.AppendUint16(buf, e.TimeSincePreviousUs)
		buf = append(buf, boolByte(e.IsGap))
		buf = append(buf, e.Values[:]...)
	}
	return buf, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// TriggerStart returns the history index where the trigger window starts.
func (m *Message) TriggerStart() (int, bool) {
	return optionalIndex(m.TriggerStartIndex)
}

// TriggerEnd returns the history index where the scan time ended.
func (m *Message) TriggerEnd() (int, bool) {
	return optionalIndex(m.TriggerEndIndex)
}

func optionalIndex(i int16) (int, bool) {
	if i == noIndex {
		return 0, false
	}
	return int(i), true
}

// HitValuePercent returns the velocity of zone in percent, if the zone was hit.
func (m *Message) HitValuePercent(zone int) (float64, bool) {
	if zone < 0 || zone >= Zones || m.Hits[zone] == 0 {
		return 0, false
	}
	return float64(m.Velocities[zone]) * 100 / maxVelocity, true
}

// ThresholdToPercent maps a sensor value (0..1023) to a rounded percentage.
func ThresholdToPercent(threshold uint16) int {
	return int(math.Round(float64(threshold) * 100 / types.MaxSensorValue))
}

func (m *Message) ThresholdMinPercent(zone int) int {
	return ThresholdToPercent(m.ThresholdsMin[zone])
}

func (m *Message) ThresholdMaxPercent(zone int) int {
	return ThresholdToPercent(m.ThresholdsMax[zone])
}

// Pedals send their position thresholds as percentages in the second zone slot.
func (m *Message) AlmostClosedThresholdPercent() int {
	return int(m.ThresholdsMin[1])
}

func (m *Message) ClosedThresholdPercent() int {
	return int(m.ThresholdsMax[1])
}

// ZonesCount is 1 for pedals regardless of the layout used internally.
func (m *Message) ZonesCount() int {
	if m.PadType == types.PadTypePedal {
		return 1
	}
	return m.ZonesType.ZonesCount()
}

func (m *Message) ZoneName(zone int) string {
	return types.ZoneName(m.PadType, zone)
}

var nextInfoID atomic.Uint64

// Info tags a message with a receive sequence number and time.
type Info struct {
	ID        uint64    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Message   *Message  `json:"message"`
}

func NewInfo(m *Message) Info {
	return Info{
		ID:        nextInfoID.Add(1) - 1,
		Timestamp: time.Now(),
		Message:   m,
	}
}
