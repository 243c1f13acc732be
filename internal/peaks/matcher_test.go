package peaks

import (
	"testing"

	"github.com/RMahshie/labfit/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchNearestNeighbour(t *testing.T) {
	axis := []float64{0, 100, 200, 600}
	values := []float64{1, 2, 3, 4}
	refs := []Reference{{Target: 100, Label: "a"}, {Target: 500, Label: "b"}}

	got, err := Match(axis, values, refs)
	require.NoError(t, err)

	assert.Equal(t, []models.PeakAssignment{
		{Label: "a", Target: 100, Position: 100, Value: 2},
		{Label: "b", Target: 500, Position: 600, Value: 4},
	}, got)
}

func TestMatchTieGoesToFirstOccurrence(t *testing.T) {
	// 150 is equidistant from 100 and 200; axis order decides.
	got, err := Match([]float64{200, 100}, []float64{7, 8}, []Reference{{Target: 150, Label: "mid"}})
	require.NoError(t, err)
	assert.Equal(t, 200.0, got[0].Position)
	assert.Equal(t, 7.0, got[0].Value)
}

func TestMatchAlwaysAssigns(t *testing.T) {
	refs := FTIRReferences()
	got, err := Match([]float64{10}, []float64{55}, refs)
	require.NoError(t, err)
	require.Len(t, got, len(refs))
	for i, a := range got {
		assert.Equal(t, refs[i].Label, a.Label)
		assert.Equal(t, 10.0, a.Position)
	}
}

func TestMatchErrors(t *testing.T) {
	_, err := Match(nil, nil, FTIRReferences())
	assert.ErrorIs(t, err, ErrEmptyAxis)

	_, err = Match([]float64{1, 2}, []float64{1}, FTIRReferences())
	assert.ErrorIs(t, err, ErrAxisMismatch)
}

func TestNearest(t *testing.T) {
	assert.Equal(t, -1, Nearest(nil, 3))
	assert.Equal(t, 2, Nearest([]float64{4000, 3000, 1710, 1690}, 1700))
}

func TestFTIRReferences(t *testing.T) {
	refs := FTIRReferences()
	require.Len(t, refs, 8)
	assert.Equal(t, Reference{Target: 3400, Label: "O-H Stretch (Alcohol)"}, refs[0])
	assert.Equal(t, Reference{Target: 1650, Label: "C=N Stretch (Imine)"}, refs[7])

	// Callers get a fresh copy.
	refs[0].Label = "changed"
	assert.Equal(t, "O-H Stretch (Alcohol)", FTIRReferences()[0].Label)
}
