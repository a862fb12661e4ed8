package layout

import (
	"strconv"
	"strings"
)

// This file defines unit-safe lengths and the conversions between points,
// millimetres and device pixels.

// Unit represents the original unit of a length value as written in a setup file.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers
	UnitMM               // millimeters
	UnitCM               // centimeters
	UnitIN               // inches
	UnitPT               // points
	UnitPX               // pixels at the reference DPI
)

// Conversion constants between pt and mm.
const (
	PtToMm = 25.4 / 72
	MmToPt = 1.0 / PtToMm

	// pxReferenceDPI is the resolution a UnitPX length is expressed in.
	pxReferenceDPI = 96.0
)

// UnitToString returns a short string for a Unit value.
func UnitToString(u Unit) string {
	switch u {
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPT:
		return "pt"
	case UnitPX:
		return "px"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// To converts this length to target unit. Supported targets: UnitMM, UnitPT.
// Unit-less values are returned unchanged.
func (l Length) To(target Unit) float64 {
	var mm float64
	switch l.Unit {
	case UnitMM:
		mm = l.Value
	case UnitCM:
		mm = l.Value * 10
	case UnitIN:
		mm = l.Value * 25.4
	case UnitPT:
		if target == UnitPT {
			return l.Value
		}
		mm = l.Value * PtToMm
	case UnitPX:
		mm = l.Value * 25.4 / pxReferenceDPI
	default:
		return l.Value
	}
	if target == UnitPT {
		return mm * MmToPt
	}
	return mm
}

func (l Length) ToMM() float64 { return l.To(UnitMM) }
func (l Length) ToPT() float64 { return l.To(UnitPT) }

// ParseRawLengthStr parses a length string preserving its unit. ok is false
// when the numeric part does not parse.
func ParseRawLengthStr(value string) (Length, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, false
	}
	unit := UnitNone
	num := v
	for _, suf := range []struct {
		s string
		u Unit
	}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}, {"px", UnitPX}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, false
	}
	return Length{Value: f, Unit: unit}, true
}

// PtToPx converts points to device pixels at dpi.
func PtToPx(pt, dpi float64) float64 { return pt * dpi / 72 }

// PxToPt converts device pixels at dpi to points.
func PxToPt(px, dpi float64) float64 {
	if dpi <= 0 {
		return 0
	}
	return px * 72 / dpi
}

// MmToPx converts millimetres to device pixels at dpi.
func MmToPx(mm, dpi float64) float64 { return mm * dpi / 25.4 }

// PxToMm converts device pixels at dpi to millimetres.
func PxToMm(px, dpi float64) float64 {
	if dpi <= 0 {
		return 0
	}
	return px * 25.4 / dpi
}
