package domain

import (
	"fmt"
	"math"
	"sort"
)

// SilenceDB is returned as the gain when no curve can answer a query.
var SilenceDB = math.Inf(-1)

// CurvePoint maps one UI volume index to an output gain in decibels.
type CurvePoint struct {
	Index int     `json:"index" yaml:"index"`
	DB    float64 `json:"db" yaml:"db"`
}

// CurvePoints is a volume curve ordered by strictly increasing Index.
type CurvePoints []CurvePoint

// Validate checks that the curve is non-empty, strictly increasing in Index
// and that every gain is a finite number.
func (c CurvePoints) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("%w: volume curve has no points", ErrInvalidArgument)
	}
	for i, p := range c {
		if math.IsNaN(p.DB) || math.IsInf(p.DB, 0) {
			return fmt.Errorf("%w: curve point %d (index %d) has non-finite gain %v",
				ErrInvalidArgument, i, p.Index, p.DB)
		}
	}
	for i := 1; i < len(c); i++ {
		if c[i].Index <= c[i-1].Index {
			return fmt.Errorf("%w: curve index %d at position %d does not increase (previous %d)",
				ErrInvalidArgument, c[i].Index, i, c[i-1].Index)
		}
	}
	return nil
}

// Clone returns an independent copy of the curve.
func (c CurvePoints) Clone() CurvePoints {
	if c == nil {
		return nil
	}
	out := make(CurvePoints, len(c))
	copy(out, c)
	return out
}

// Interpolate returns the gain at index, interpolating linearly between the
// bracketing points. Indexes outside the curve saturate to the end points.
// The curve must be non-empty and sorted.
func (c CurvePoints) Interpolate(index int) float64 {
	// first point with Index >= index
	i := sort.Search(len(c), func(i int) bool { return c[i].Index >= index })
	switch {
	case i == 0:
		return c[0].DB
	case i == len(c):
		return c[len(c)-1].DB
	case c[i].Index == index:
		return c[i].DB
	}
	lo, hi := c[i-1], c[i]
	span := float64(hi.Index - lo.Index)
	return lo.DB + (hi.DB-lo.DB)*float64(index-lo.Index)/span
}
