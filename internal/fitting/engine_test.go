package fitting

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/RMahshie/labfit/internal/catalog"
	"github.com/RMahshie/labfit/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// synthetic builds a series from a model and known parameters, with an
// optional deterministic ripple standing in for measurement noise.
func synthetic(name string, kind catalog.Kind, params []float64, xs []float64, ripple float64) models.Series {
	spec := catalog.MustLookup(kind)
	s := models.Series{Name: name}
	for i, x := range xs {
		y := spec.Formula(x, params) + ripple*math.Sin(1.7*float64(i))
		s.Points = append(s.Points, models.Point{X: x, Y: y})
	}
	return s
}

func linspace(start, end float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + (end-start)*float64(i)/float64(n-1)
	}
	return out
}

func TestFitPseudoFirstOrderRecoversParameters(t *testing.T) {
	s := synthetic("kin-1", catalog.PseudoFirstOrder, []float64{50, 0.2}, linspace(0, 20, 21), 0)

	res, err := NewEngine().Fit(catalog.MustLookup(catalog.PseudoFirstOrder), s)
	require.NoError(t, err)

	assert.InEpsilon(t, 50, res.Param("qe"), 0.01)
	assert.InEpsilon(t, 0.2, res.Param("k1"), 0.01)
	require.NotNil(t, res.RSquared)
	assert.GreaterOrEqual(t, *res.RSquared, 0.999)
	assert.True(t, res.Converged)
	assert.Equal(t, "kin-1", res.Series)
	assert.Equal(t, "Pseudo First Order", res.Model)
	assert.Equal(t, []string{"qe", "k1"}, res.ParamOrder)
}

func TestFitRecoversEachModel(t *testing.T) {
	tests := []struct {
		name   string
		kind   catalog.Kind
		params []float64
		xs     []float64
	}{
		{"pseudo second order", catalog.PseudoSecondOrder, []float64{30, 0.01}, linspace(1, 60, 25)},
		{"langmuir", catalog.Langmuir, []float64{40, 0.5}, []float64{0.5, 1, 2, 4, 8, 16, 32}},
		{"freundlich", catalog.Freundlich, []float64{2, 2.5}, linspace(1, 10, 10)},
	}

	engine := NewEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := catalog.MustLookup(tt.kind)
			res, err := engine.Fit(spec, synthetic(tt.name, tt.kind, tt.params, tt.xs, 0))
			require.NoError(t, err)

			for i, name := range spec.Params {
				assert.InEpsilon(t, tt.params[i], res.Param(name), 0.01, name)
			}
			require.NotNil(t, res.RSquared)
			assert.Greater(t, *res.RSquared, 0.999)
		})
	}
}

func TestFitNoisySeries(t *testing.T) {
	s := synthetic("noisy", catalog.PseudoFirstOrder, []float64{50, 0.2}, linspace(0, 20, 21), 0.5)

	res, err := NewEngine().Fit(catalog.MustLookup(catalog.PseudoFirstOrder), s)
	require.NoError(t, err)

	assert.InEpsilon(t, 50, res.Param("qe"), 0.05)
	assert.InEpsilon(t, 0.2, res.Param("k1"), 0.05)
	require.NotNil(t, res.RSquared)
	assert.Less(t, *res.RSquared, 1.0)
	assert.Greater(t, *res.RSquared, 0.98)
}

func TestFitConstantSeriesHasUndefinedRSquared(t *testing.T) {
	s := models.Series{Name: "flat", Points: []models.Point{{X: 1, Y: 5}, {X: 2, Y: 5}, {X: 3, Y: 5}, {X: 4, Y: 5}}}

	engine := NewEngine()
	for _, k := range catalog.Kinds {
		t.Run(k.Key(), func(t *testing.T) {
			res, err := engine.Fit(catalog.MustLookup(k), s)
			require.NoError(t, err)
			require.NotNil(t, res)
			assert.Nil(t, res.RSquared)
		})
	}
}

func TestFitErrors(t *testing.T) {
	pfo := catalog.MustLookup(catalog.PseudoFirstOrder)

	tests := []struct {
		name    string
		engine  *Engine
		spec    catalog.ModelSpec
		series  models.Series
		wantErr error
	}{
		{
			name:    "empty series",
			engine:  NewEngine(),
			spec:    pfo,
			series:  models.Series{Name: "empty"},
			wantErr: models.ErrNoValidPoints,
		},
		{
			name:    "fewer points than parameters",
			engine:  NewEngine(),
			spec:    pfo,
			series:  models.Series{Name: "one", Points: []models.Point{{X: 1, Y: 2}}},
			wantErr: ErrInsufficientData,
		},
		{
			name:    "zero asymptote guess",
			engine:  NewEngine(),
			spec:    catalog.MustLookup(catalog.Langmuir),
			series:  models.Series{Name: "zeros", Points: []models.Point{{X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}}},
			wantErr: ErrInvalidGuess,
		},
		{
			name:    "no sensitivity to any parameter",
			engine:  NewEngine(),
			spec:    pfo,
			series:  models.Series{Name: "t0", Points: []models.Point{{X: 0, Y: 1}, {X: 0, Y: 2}, {X: 0, Y: 3}}},
			wantErr: ErrSingular,
		},
		{
			name:    "iteration cap",
			engine:  NewEngine(WithMaxIterations(1)),
			spec:    pfo,
			series:  synthetic("capped", catalog.PseudoFirstOrder, []float64{50, 0.2}, linspace(0, 20, 21), 0),
			wantErr: ErrNoConvergence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.engine.Fit(tt.spec, tt.series)
			assert.Nil(t, res)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var fitErr *FitError
			require.True(t, errors.As(err, &fitErr))
			assert.Equal(t, tt.series.Name, fitErr.Series)
			assert.Equal(t, tt.spec.Name, fitErr.Model)
		})
	}
}

func TestFitIsolatedPerModel(t *testing.T) {
	// A failure for one model does not affect the next fit of the same series.
	s := synthetic("iso", catalog.Langmuir, []float64{40, 0.5}, []float64{0.5, 1, 2, 4, 8, 16, 32}, 0)
	capped := NewEngine(WithMaxIterations(1))

	_, err := capped.Fit(catalog.MustLookup(catalog.Langmuir), s)
	require.ErrorIs(t, err, ErrNoConvergence)

	res, err := NewEngine().Fit(catalog.MustLookup(catalog.Freundlich), s)
	require.NoError(t, err)
	assert.NotNil(t, res.RSquared)
}

func TestFitConcurrentUse(t *testing.T) {
	engine := NewEngine()
	spec := catalog.MustLookup(catalog.PseudoFirstOrder)
	s := synthetic("shared", catalog.PseudoFirstOrder, []float64{50, 0.2}, linspace(0, 20, 21), 0.3)

	want, err := engine.Fit(spec, s)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*models.FitResult, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = engine.Fit(spec, s)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		require.NotNil(t, got)
		assert.Equal(t, want.Params, got.Params)
	}
}

func TestRSquared(t *testing.T) {
	assert.Nil(t, RSquared(3, 0))

	r2 := RSquared(1, 4)
	require.NotNil(t, r2)
	assert.InDelta(t, 0.75, *r2, 1e-12)
}

func TestOptionsIgnoreNonPositive(t *testing.T) {
	cfg := NewEngine(WithMaxIterations(0), WithTolerance(-1), WithInitialDamping(0), nil).Config()
	assert.Equal(t, DefaultConfig(), cfg)

	cfg = NewEngine(WithMaxIterations(50), WithTolerance(1e-6), WithInitialDamping(1)).Config()
	assert.Equal(t, Config{MaxIterations: 50, Tolerance: 1e-6, InitialDamping: 1}, cfg)
}
