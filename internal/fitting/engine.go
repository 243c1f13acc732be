// Package fitting fits catalog models to a series by nonlinear least squares.
//
// The optimizer is a Levenberg-Marquardt loop with Marquardt diagonal scaling:
//
//	(JᵀJ + λ·diag(JᵀJ)) δ = Jᵀ(y − f(x; p))
//
// A step is accepted only when it lowers the residual sum of squares; otherwise
// λ grows and the step is recomputed. The Jacobian is taken by central
// differences, so catalog models only need a formula. Settings live in Config
// and default to the named constants in this package.
package fitting

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/RMahshie/labfit/internal/catalog"
	"github.com/RMahshie/labfit/pkg/models"
)

// Engine runs fits. It holds no per-fit state and is safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine from the default config plus options.
func NewEngine(opts ...Option) *Engine {
	return &Engine{cfg: applyOptions(opts...)}
}

// Config returns the engine settings.
func (e *Engine) Config() Config {
	return e.cfg
}

type solution struct {
	params     []float64
	ss         float64
	iterations int
	converged  bool
}

// Fit fits spec to the series and reports the parameters and R².
//
// A constant series has undefined R²: the result carries a nil RSquared and
// the optimizer outcome is reported through Converged rather than an error.
func (e *Engine) Fit(spec catalog.ModelSpec, s models.Series) (*models.FitResult, error) {
	fail := func(err error) error {
		return &FitError{Series: s.Name, Model: spec.Name, Err: err}
	}

	if err := s.Validate(); err != nil {
		return nil, fail(err)
	}
	if len(s.Points) < spec.Arity() {
		return nil, fail(ErrInsufficientData)
	}

	xs, ys := s.XY()
	p0 := spec.Guess(s)
	if err := checkGuess(spec, p0); err != nil {
		return nil, fail(err)
	}

	ssTot := totalSumOfSquares(ys)

	sol, err := e.minimize(spec, xs, ys, p0)
	if err != nil {
		optimizerFailure := errors.Is(err, ErrNoConvergence) || errors.Is(err, ErrSingular)
		if !(ssTot == 0 && optimizerFailure && sol != nil) {
			return nil, fail(err)
		}
	}

	result := &models.FitResult{
		Series:     s.Name,
		Model:      spec.Name,
		Params:     make(map[string]float64, spec.Arity()),
		ParamOrder: append([]string(nil), spec.Params...),
		RSquared:   RSquared(sol.ss, ssTot),
		Converged:  sol.converged,
		Iterations: sol.iterations,
	}
	for i, name := range spec.Params {
		result.Params[name] = sol.params[i]
	}
	return result, nil
}

// RSquared returns 1 − ssRes/ssTot, or nil when ssTot is zero.
func RSquared(ssRes, ssTot float64) *float64 {
	if ssTot == 0 {
		return nil
	}
	r2 := 1 - ssRes/ssTot
	return &r2
}

func totalSumOfSquares(ys []float64) float64 {
	mean := stat.Mean(ys, nil)
	var ss float64
	for _, y := range ys {
		d := y - mean
		ss += d * d
	}
	return ss
}

func checkGuess(spec catalog.ModelSpec, p0 []float64) error {
	if len(p0) != spec.Arity() {
		return ErrInvalidGuess
	}
	for i, v := range p0 {
		if math.IsNaN(v) || math.IsInf(v, 0) || !spec.Bounds[i].Contains(v) {
			return ErrInvalidGuess
		}
	}
	if spec.PositiveScale && p0[0] <= 0 {
		return ErrInvalidGuess
	}
	return nil
}

func (e *Engine) minimize(spec catalog.ModelSpec, xs, ys, p0 []float64) (*solution, error) {
	n, m := len(xs), len(p0)
	tol := e.cfg.Tolerance

	p := append([]float64(nil), p0...)
	r := make([]float64, n)
	ss := residuals(spec, xs, ys, p, r)
	if !isFinite(ss) {
		return nil, ErrInvalidGuess
	}

	sol := &solution{params: p, ss: ss}
	if ss == 0 {
		sol.converged = true
		return sol, nil
	}

	jac := mat.NewDense(n, m, nil)
	trial := make([]float64, m)
	trialR := make([]float64, n)
	lambda := e.cfg.InitialDamping

	for iter := 1; iter <= e.cfg.MaxIterations; iter++ {
		sol.iterations = iter
		jacobian(spec, xs, p, jac)

		var jtj mat.SymDense
		jtj.SymOuterK(1, jac.T())
		g := mat.NewVecDense(m, nil)
		g.MulVec(jac.T(), mat.NewVecDense(n, r))

		accepted, solved := false, false
		for ; lambda <= MaxDamping; lambda *= DampingIncrease {
			step, ok := dampedStep(&jtj, g, lambda)
			if !ok {
				continue
			}
			solved = true

			for j := range trial {
				trial[j] = spec.Bounds[j].Clamp(p[j] + step[j])
			}
			small := smallStep(p, trial, tol)
			trialSS := residuals(spec, xs, ys, trial, trialR)

			if isFinite(trialSS) && trialSS < ss {
				improvement := ss - trialSS
				copy(p, trial)
				copy(r, trialR)
				oldSS := ss
				ss = trialSS
				sol.ss = ss
				lambda = math.Max(lambda/DampingDecrease, minDamping)
				accepted = true
				if ss == 0 || small || improvement <= tol*oldSS {
					sol.converged = true
				}
				break
			}
			if small {
				// No representable step lowers SS: p is a stationary point.
				sol.converged = true
				return sol, nil
			}
		}

		if !accepted {
			if !solved {
				return sol, ErrSingular
			}
			sol.converged = true
			return sol, nil
		}
		if sol.converged {
			return sol, nil
		}
	}

	return sol, ErrNoConvergence
}

// dampedStep solves (JᵀJ + λ·diag(JᵀJ)) δ = g. ok is false when the damped
// matrix is not positive definite or the solution is not finite.
func dampedStep(jtj *mat.SymDense, g *mat.VecDense, lambda float64) ([]float64, bool) {
	m := jtj.SymmetricDim()
	a := mat.NewSymDense(m, nil)
	for i := 0; i < m; i++ {
		for j := 0; j <= i; j++ {
			v := jtj.At(i, j)
			if i == j {
				v += lambda * v
			}
			a.SetSym(i, j, v)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return nil, false
	}
	var step mat.VecDense
	if err := chol.SolveVecTo(&step, g); err != nil {
		return nil, false
	}
	out := step.RawVector().Data
	for _, v := range out {
		if !isFinite(v) {
			return nil, false
		}
	}
	return out, true
}

// residuals fills r with y − f(x; p) and returns the sum of squares.
func residuals(spec catalog.ModelSpec, xs, ys, p, r []float64) float64 {
	for i, x := range xs {
		r[i] = ys[i] - spec.Formula(x, p)
	}
	return floats.Dot(r, r)
}

// jacobian fills jac with ∂f(x_i)/∂p_j by central differences, falling back
// to a one-sided difference at a parameter bound.
func jacobian(spec catalog.ModelSpec, xs, p []float64, jac *mat.Dense) {
	shifted := append([]float64(nil), p...)
	for j := range p {
		h := jacobianStep * math.Max(math.Abs(p[j]), minParamScale)
		lo, hi := p[j]-h, p[j]+h
		if lo < spec.Bounds[j].Lower {
			lo = p[j]
		}
		if hi > spec.Bounds[j].Upper {
			hi = p[j]
		}
		for i, x := range xs {
			shifted[j] = hi
			fHi := spec.Formula(x, shifted)
			shifted[j] = lo
			fLo := spec.Formula(x, shifted)
			jac.Set(i, j, (fHi-fLo)/(hi-lo))
		}
		shifted[j] = p[j]
	}
}

var (
	jacobianStep  = math.Cbrt(math.Nextafter(1, 2) - 1)
	minParamScale = 1e-8
)

// smallStep reports whether every parameter moved less than tol relative to its size.
func smallStep(p, trial []float64, tol float64) bool {
	for j := range p {
		if math.Abs(trial[j]-p[j]) > tol*(math.Abs(p[j])+tol) {
			return false
		}
	}
	return true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
