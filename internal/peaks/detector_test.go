package peaks

import (
	"testing"

	"github.com/RMahshie/labfit/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signal(ys ...float64) []models.Point {
	out := make([]models.Point, len(ys))
	for i, y := range ys {
		out[i] = models.Point{X: float64(i), Y: y}
	}
	return out
}

func TestDetectSingleBump(t *testing.T) {
	got := NewDetector(WithProminenceThreshold(1)).Detect(signal(0, 1, 5, 1, 0))

	require.Len(t, got, 1)
	assert.Equal(t, 2.0, got[0].Position)
	assert.Equal(t, 5.0, got[0].Value)
	assert.InDelta(t, 5.0, got[0].Prominence, 1e-12)
}

func TestDetectTopKThenIntensityOrder(t *testing.T) {
	// Candidates: x=1 (value 10, prominence 10), x=3 (3, 3), x=6 (17, 7).
	ys := signal(0, 10, 0, 3, 0, 10, 17, 10)

	got := NewDetector(WithProminenceThreshold(1), WithMaxPeaks(2)).Detect(ys)

	require.Len(t, got, 2)
	assert.Equal(t, models.Peak{Position: 6, Value: 17, Prominence: 7, Index: 6}, got[0])
	assert.Equal(t, models.Peak{Position: 1, Value: 10, Prominence: 10, Index: 1}, got[1])
}

func TestDetectFewerThanMax(t *testing.T) {
	got := NewDetector(WithProminenceThreshold(1), WithMaxPeaks(10)).Detect(signal(0, 10, 0, 3, 0, 10, 17, 10))
	require.Len(t, got, 3)
	assert.Equal(t, []float64{17, 10, 3}, []float64{got[0].Value, got[1].Value, got[2].Value})
}

func TestDetectThreshold(t *testing.T) {
	ys := signal(0, 10, 0, 3, 0, 10, 17, 10)

	got := NewDetector(WithProminenceThreshold(7), WithMaxPeaks(0)).Detect(ys)
	require.Len(t, got, 2)

	// Threshold is inclusive.
	got = NewDetector(WithProminenceThreshold(10)).Detect(ys)
	require.Len(t, got, 1)
	assert.Equal(t, 1.0, got[0].Position)
}

func TestDetectNoPeaks(t *testing.T) {
	tests := []struct {
		name string
		in   []models.Point
	}{
		{"empty", nil},
		{"single sample", signal(4)},
		{"monotonic", signal(1, 2, 3, 4)},
		{"plateau", signal(0, 5, 5, 0)},
		{"boundary maximum", signal(9, 1, 0)},
		{"below default threshold", signal(0, 50, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewDetector().Detect(tt.in)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestDetectOrdersByXFirst(t *testing.T) {
	// Same bump stored in reverse x order.
	in := []models.Point{{X: 4, Y: 0}, {X: 3, Y: 1}, {X: 2, Y: 5}, {X: 1, Y: 1}, {X: 0, Y: 0}}

	got := NewDetector(WithProminenceThreshold(0)).Detect(in)
	require.Len(t, got, 1)
	assert.Equal(t, 2.0, got[0].Position)
	assert.Equal(t, 2, got[0].Index)
	// Input is not reordered in place.
	assert.Equal(t, 4.0, in[0].X)
}

func TestDetectPrefersHigherValueOnProminenceTie(t *testing.T) {
	// x=1 and x=5 both have prominence 4; x=5 stands higher.
	ys := signal(0, 4, 0, 2, 2, 6, 2)

	got := NewDetector(WithProminenceThreshold(1), WithMaxPeaks(1)).Detect(ys)
	require.Len(t, got, 1)
	assert.Equal(t, 5.0, got[0].Position)
}

func TestProminence(t *testing.T) {
	ys := []float64{1, 3, 2, 8, 4, 6, 0}

	assert.InDelta(t, 1.0, Prominence(ys, 1), 1e-12) // valleys 1 and 2
	assert.InDelta(t, 7.0, Prominence(ys, 3), 1e-12) // runs to both ends
	assert.InDelta(t, 2.0, Prominence(ys, 5), 1e-12) // left stops at 8, valley 4
}

func TestLocalMaxima(t *testing.T) {
	assert.Equal(t, []int{1, 3, 5}, LocalMaxima([]float64{1, 3, 2, 8, 4, 6, 0}))
	assert.Nil(t, LocalMaxima([]float64{1, 2}))
}

func TestDefaultConfig(t *testing.T) {
	cfg := NewDetector().Config()
	assert.Equal(t, 100.0, cfg.ProminenceThreshold)
	assert.Equal(t, 15, cfg.MaxPeaks)

	assert.Equal(t, 100.0, NewDetector(WithProminenceThreshold(-2)).Config().ProminenceThreshold)
}
