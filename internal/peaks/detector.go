// Package peaks finds prominent local maxima in a signal and matches
// reference band positions against an observed axis.
package peaks

import (
	"sort"

	"github.com/RMahshie/labfit/pkg/models"
)

// Defaults used for diffraction patterns.
const (
	DefaultProminenceThreshold = 100
	DefaultMaxPeaks            = 15
)

// Config controls peak selection. MaxPeaks <= 0 keeps every qualifying peak.
type Config struct {
	ProminenceThreshold float64
	MaxPeaks            int
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the diffraction defaults.
func DefaultConfig() Config {
	return Config{
		ProminenceThreshold: DefaultProminenceThreshold,
		MaxPeaks:            DefaultMaxPeaks,
	}
}

// WithProminenceThreshold sets the minimum prominence a peak must reach.
func WithProminenceThreshold(v float64) Option {
	return func(cfg *Config) {
		if v >= 0 {
			cfg.ProminenceThreshold = v
		}
	}
}

// WithMaxPeaks caps the number of peaks returned.
func WithMaxPeaks(n int) Option {
	return func(cfg *Config) {
		cfg.MaxPeaks = n
	}
}

// Detector extracts peaks. The zero value keeps every peak with non-negative prominence.
type Detector struct {
	cfg Config
}

// NewDetector creates a detector from the defaults plus options.
func NewDetector(opts ...Option) *Detector {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Detector{cfg: cfg}
}

// Config returns the detector settings.
func (d *Detector) Config() Config {
	return d.cfg
}

// Detect returns the most prominent peaks of the signal, ordered by value
// descending. The signal is ordered by x first; stored order does not matter.
//
// Selection keeps the MaxPeaks highest prominences (ties: higher value, then
// lower x); the returned slice is re-sorted by value (ties: lower x first).
// A signal without qualifying peaks yields an empty slice.
func (d *Detector) Detect(points []models.Point) []models.Peak {
	ordered := append([]models.Point(nil), points...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].X < ordered[j].X })

	ys := make([]float64, len(ordered))
	for i, p := range ordered {
		ys[i] = p.Y
	}

	var found []models.Peak
	for _, i := range LocalMaxima(ys) {
		prom := Prominence(ys, i)
		if prom < d.cfg.ProminenceThreshold {
			continue
		}
		found = append(found, models.Peak{
			Position:   ordered[i].X,
			Value:      ys[i],
			Prominence: prom,
			Index:      i,
		})
	}

	sort.SliceStable(found, func(i, j int) bool {
		a, b := found[i], found[j]
		if a.Prominence != b.Prominence {
			return a.Prominence > b.Prominence
		}
		if a.Value != b.Value {
			return a.Value > b.Value
		}
		return a.Index < b.Index
	})
	if d.cfg.MaxPeaks > 0 && len(found) > d.cfg.MaxPeaks {
		found = found[:d.cfg.MaxPeaks]
	}

	sort.SliceStable(found, func(i, j int) bool {
		a, b := found[i], found[j]
		if a.Value != b.Value {
			return a.Value > b.Value
		}
		return a.Index < b.Index
	})
	if found == nil {
		return []models.Peak{}
	}
	return found
}

// LocalMaxima returns the indices strictly greater than both neighbours.
// The first and last samples are never maxima.
func LocalMaxima(ys []float64) []int {
	var out []int
	for i := 1; i < len(ys)-1; i++ {
		if ys[i] > ys[i-1] && ys[i] > ys[i+1] {
			out = append(out, i)
		}
	}
	return out
}

// Prominence returns how far ys[i] stands above the higher of its two
// bounding valleys. Each valley is the minimum met while walking away from i
// until a strictly higher sample or the end of the signal.
func Prominence(ys []float64, i int) float64 {
	h := ys[i]

	leftMin := h
	for j := i - 1; j >= 0 && ys[j] <= h; j-- {
		if ys[j] < leftMin {
			leftMin = ys[j]
		}
	}

	rightMin := h
	for j := i + 1; j < len(ys) && ys[j] <= h; j++ {
		if ys[j] < rightMin {
			rightMin = ys[j]
		}
	}

	base := leftMin
	if rightMin > base {
		base = rightMin
	}
	return h - base
}
