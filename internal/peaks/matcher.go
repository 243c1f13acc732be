package peaks

import (
	"errors"
	"fmt"
	"math"

	"github.com/RMahshie/labfit/pkg/models"
)

var (
	// ErrEmptyAxis is returned when there is nothing to match against.
	ErrEmptyAxis = errors.New("peaks: empty axis")
	// ErrAxisMismatch is returned when axis and values differ in length.
	ErrAxisMismatch = errors.New("peaks: axis and values differ in length")
)

// Reference is a labelled band position.
type Reference struct {
	Target float64 `json:"target"`
	Label  string  `json:"label"`
}

// Match assigns every reference to the axis sample nearest its target. Ties
// go to the first sample in axis order. There is always exactly one
// assignment per reference, however far the nearest sample is.
func Match(axis, values []float64, refs []Reference) ([]models.PeakAssignment, error) {
	if len(axis) != len(values) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrAxisMismatch, len(axis), len(values))
	}
	if len(axis) == 0 {
		return nil, ErrEmptyAxis
	}

	out := make([]models.PeakAssignment, len(refs))
	for i, ref := range refs {
		idx := Nearest(axis, ref.Target)
		out[i] = models.PeakAssignment{
			Label:    ref.Label,
			Target:   ref.Target,
			Position: axis[idx],
			Value:    values[idx],
		}
	}
	return out, nil
}

// Nearest returns the index of the first axis value closest to target, or -1
// for an empty axis.
func Nearest(axis []float64, target float64) int {
	if len(axis) == 0 {
		return -1
	}
	best, bestDist := 0, math.Abs(axis[0]-target)
	for i := 1; i < len(axis); i++ {
		if d := math.Abs(axis[i] - target); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// FTIRReferences returns the functional-group bands checked in infrared spectra.
func FTIRReferences() []Reference {
	return []Reference{
		{Target: 3400, Label: "O-H Stretch (Alcohol)"},
		{Target: 3400, Label: "N-H Stretch (Amine)"},
		{Target: 1700, Label: "C=O Stretch (Carbonyl)"},
		{Target: 2900, Label: "C-H Stretch (Alkane)"},
		{Target: 1650, Label: "C=C Stretch (Alkene)"},
		{Target: 2200, Label: "C≡C Stretch (Alkyne)"},
		{Target: 1100, Label: "C-O Stretch (Ether)"},
		{Target: 1650, Label: "C=N Stretch (Imine)"},
	}
}
