// Package catalog declares the fittable adsorption models: their formulas,
// parameter names, initial-guess rules and bounds.
//
// The catalog is a closed set. Adding a model means adding a Kind constant and
// a case in Lookup; the fitting engine never switches on model names.
package catalog

import (
	"errors"
	"fmt"
	"math"

	"github.com/RMahshie/labfit/pkg/models"
)

// ErrUnknownModel is returned for a kind or name outside the catalog.
var ErrUnknownModel = errors.New("catalog: unknown model")

// Kind identifies a catalog model.
type Kind int

const (
	PseudoFirstOrder Kind = iota
	PseudoSecondOrder
	Langmuir
	Freundlich
)

// Kinds lists every model in catalog order.
var Kinds = []Kind{PseudoFirstOrder, PseudoSecondOrder, Langmuir, Freundlich}

// Bound is an inclusive parameter range. Infinite ends mean unbounded.
type Bound struct {
	Lower float64
	Upper float64
}

// Unbounded is the default parameter range.
var Unbounded = Bound{Lower: math.Inf(-1), Upper: math.Inf(1)}

// Contains reports whether v lies in the range.
func (b Bound) Contains(v float64) bool {
	return v >= b.Lower && v <= b.Upper
}

// Clamp pulls v into the range.
func (b Bound) Clamp(v float64) float64 {
	return math.Min(math.Max(v, b.Lower), b.Upper)
}

// ModelSpec describes one fittable model. Values returned by Lookup are shared
// and must not be modified.
type ModelSpec struct {
	Kind   Kind
	Name   string
	Params []string
	// Formula evaluates the model at x for the parameter vector p.
	Formula func(x float64, p []float64) float64
	// Guess derives the starting parameter vector from the observations.
	Guess  func(s models.Series) []float64
	Bounds []Bound
	// PositiveScale marks models whose first parameter is an asymptote that
	// must start strictly positive.
	PositiveScale bool
}

// Arity is the number of free parameters.
func (m ModelSpec) Arity() int {
	return len(m.Params)
}

// Eval evaluates the model at every x.
func (m ModelSpec) Eval(xs []float64, p []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = m.Formula(x, p)
	}
	return out
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	spec, err := Lookup(k)
	if err != nil {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return spec.Name
}

// Key is the snake_case identifier used in requests and storage.
func (k Kind) Key() string {
	switch k {
	case PseudoFirstOrder:
		return "pseudo_first_order"
	case PseudoSecondOrder:
		return "pseudo_second_order"
	case Langmuir:
		return "langmuir"
	case Freundlich:
		return "freundlich"
	}
	return ""
}

// ParseKind resolves a key or display name to a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if s == k.Key() || s == k.String() {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownModel, s)
}

// Lookup returns the spec for a kind.
func Lookup(k Kind) (ModelSpec, error) {
	switch k {
	case PseudoFirstOrder:
		return pseudoFirstOrder, nil
	case PseudoSecondOrder:
		return pseudoSecondOrder, nil
	case Langmuir:
		return langmuir, nil
	case Freundlich:
		return freundlich, nil
	}
	return ModelSpec{}, fmt.Errorf("%w: Kind(%d)", ErrUnknownModel, int(k))
}

// MustLookup is Lookup for kinds known at compile time.
func MustLookup(k Kind) ModelSpec {
	spec, err := Lookup(k)
	if err != nil {
		panic(err)
	}
	return spec
}

// ForAnalysis returns the models attempted for an analysis type, in catalog order.
// Peak analyses fit nothing.
func ForAnalysis(t models.AnalysisType) []Kind {
	switch t {
	case models.AnalysisKinetics:
		return []Kind{PseudoFirstOrder, PseudoSecondOrder}
	case models.AnalysisIsotherm:
		return []Kind{Langmuir, Freundlich}
	}
	return nil
}

// Select narrows the kinds for an analysis to the requested keys. An empty
// request keeps everything. Requested models not valid for the analysis are an error.
func Select(t models.AnalysisType, requested []string) ([]Kind, error) {
	all := ForAnalysis(t)
	if len(requested) == 0 {
		return all, nil
	}
	want := make(map[Kind]bool, len(requested))
	for _, name := range requested {
		k, err := ParseKind(name)
		if err != nil {
			return nil, err
		}
		want[k] = true
	}
	var out []Kind
	for _, k := range all {
		if want[k] {
			out = append(out, k)
			delete(want, k)
		}
	}
	for k := range want {
		return nil, fmt.Errorf("%w: %s does not apply to %s", ErrUnknownModel, k, t)
	}
	return out, nil
}

func maxResponse(s models.Series) float64 {
	return s.MaxY()
}

var pseudoFirstOrder = ModelSpec{
	Kind:   PseudoFirstOrder,
	Name:   "Pseudo First Order",
	Params: []string{"qe", "k1"},
	Formula: func(t float64, p []float64) float64 {
		return p[0] * (1 - math.Exp(-p[1]*t))
	},
	Guess: func(s models.Series) []float64 {
		return []float64{maxResponse(s), 0.1}
	},
	Bounds:        []Bound{Unbounded, Unbounded},
	PositiveScale: true,
}

var pseudoSecondOrder = ModelSpec{
	Kind:   PseudoSecondOrder,
	Name:   "Pseudo Second Order",
	Params: []string{"qe", "k2"},
	Formula: func(t float64, p []float64) float64 {
		qe, k2 := p[0], p[1]
		return qe * qe * k2 * t / (1 + qe*k2*t)
	},
	Guess: func(s models.Series) []float64 {
		return []float64{maxResponse(s), 0.001}
	},
	Bounds:        []Bound{Unbounded, Unbounded},
	PositiveScale: true,
}

var langmuir = ModelSpec{
	Kind:   Langmuir,
	Name:   "Langmuir",
	Params: []string{"qm", "kL"},
	Formula: func(ce float64, p []float64) float64 {
		qm, kl := p[0], p[1]
		return qm * kl * ce / (1 + kl*ce)
	},
	Guess: func(s models.Series) []float64 {
		return []float64{maxResponse(s), 0.1}
	},
	Bounds:        []Bound{Unbounded, Unbounded},
	PositiveScale: true,
}

// n is kept away from zero; 1/n is the Freundlich exponent.
var freundlich = ModelSpec{
	Kind:   Freundlich,
	Name:   "Freundlich",
	Params: []string{"kF", "n"},
	Formula: func(ce float64, p []float64) float64 {
		if ce == 0 {
			return 0
		}
		return p[0] * math.Pow(ce, 1/p[1])
	},
	Guess: func(models.Series) []float64 {
		return []float64{1.0, 1.0}
	},
	Bounds: []Bound{Unbounded, {Lower: 1e-6, Upper: math.Inf(1)}},
}
