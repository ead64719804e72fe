package types

import "fmt"

type PadType string

const (
	PadTypeDrum   PadType = "Drum"
	PadTypeCymbal PadType = "Cymbal"
	PadTypePedal  PadType = "Pedal"
)

type ZonesType string

const (
	Zones1Controller           ZonesType = "Zones1_Controller"
	Zones1Piezo                ZonesType = "Zones1_Piezo"
	Zones2Piezos               ZonesType = "Zones2_Piezos"
	Zones2PiezoAndSwitch       ZonesType = "Zones2_PiezoAndSwitch"
	Zones3Piezos               ZonesType = "Zones3_Piezos"
	Zones3PiezoAndSwitches2TRS ZonesType = "Zones3_PiezoAndSwitches_2TRS" // e.g. Roland cymbals
	Zones3PiezoAndSwitches1TRS ZonesType = "Zones3_PiezoAndSwitches_1TRS" // shared edge/cup pin, e.g. Yamaha cymbals
)

type ChokeType string

const (
	ChokeNone       ChokeType = "None"
	ChokeSwitchEdge ChokeType = "Switch_Edge"
	ChokeSwitchCup  ChokeType = "Switch_Cup"
)

type CurveType string

const (
	CurveLinear CurveType = "Linear"
	CurveExp1   CurveType = "Exp1"
	CurveExp2   CurveType = "Exp2"
	CurveLog1   CurveType = "Log1"
	CurveLog2   CurveType = "Log2"
)

// Wire order of the enumerations. The device transmits the index into these lists.
var (
	PadTypes   = []PadType{PadTypeDrum, PadTypeCymbal, PadTypePedal}
	ZonesTypes = []ZonesType{
		Zones1Controller,
		Zones1Piezo,
		Zones2Piezos,
		Zones2PiezoAndSwitch,
		Zones3Piezos,
		Zones3PiezoAndSwitches2TRS,
		Zones3PiezoAndSwitches1TRS,
	}
	ChokeTypes = []ChokeType{ChokeNone, ChokeSwitchEdge, ChokeSwitchCup}
	CurveTypes = []CurveType{CurveLinear, CurveExp1, CurveExp2, CurveLog1, CurveLog2}
)

// OrdinalError is returned for an enumeration ordinal outside the known range.
type OrdinalError struct {
	Enum    string
	Ordinal uint8
	Count   int
}

func (e *OrdinalError) Error() string {
	return fmt.Sprintf("%s ordinal %d out of range [0, %d)", e.Enum, e.Ordinal, e.Count)
}

func fromOrdinal[T any](enum string, values []T, ordinal uint8) (T, error) {
	if int(ordinal) >= len(values) {
		var zero T
		return zero, &OrdinalError{Enum: enum, Ordinal: ordinal, Count: len(values)}
	}
	return values[ordinal], nil
}

func ordinalOf[T comparable](values []T, v T) (uint8, bool) {
	for i, candidate := range values {
		if candidate == v {
			return uint8(i), true
		}
	}
	return 0, false
}

func PadTypeFromOrdinal(o uint8) (PadType, error) { return fromOrdinal("PadType", PadTypes, o) }

func ZonesTypeFromOrdinal(o uint8) (ZonesType, error) {
	return fromOrdinal("ZonesType", ZonesTypes, o)
}

func ChokeTypeFromOrdinal(o uint8) (ChokeType, error) {
	return fromOrdinal("ChokeType", ChokeTypes, o)
}

func (p PadType) Ordinal() (uint8, bool)   { return ordinalOf(PadTypes, p) }
func (z ZonesType) Ordinal() (uint8, bool) { return ordinalOf(ZonesTypes, z) }
func (c ChokeType) Ordinal() (uint8, bool) { return ordinalOf(ChokeTypes, c) }

// ZonesCount returns the number of zones of a zone layout, or 0 for an unknown layout.
func (z ZonesType) ZonesCount() int {
	switch z {
	case Zones1Controller, Zones1Piezo:
		return 1
	case Zones2Piezos, Zones2PiezoAndSwitch:
		return 2
	case Zones3Piezos, Zones3PiezoAndSwitches1TRS, Zones3PiezoAndSwitches2TRS:
		return 3
	}
	return 0
}

// ZoneName returns the display name of a zone of the given pad type.
func ZoneName(padType PadType, zone int) string {
	var names []string
	switch padType {
	case PadTypeDrum:
		names = []string{"Head", "Rim", "Side-Rim"}
	case PadTypeCymbal:
		names = []string{"Bow", "Edge", "Cup"}
	case PadTypePedal:
		return "Pedal"
	}
	if zone < 0 || zone >= len(names) {
		return ""
	}
	return names[zone]
}
