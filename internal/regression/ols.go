// Package regression implements the ordinary least squares fits and the R²
// decompositions used by the coupling analysis.
package regression

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// InterceptName is the term name of the constant column
const InterceptName = "Intercept"

// Coefficient is one estimated term of a fit
type Coefficient struct {
	Name     string
	Estimate float64
	StdErr   float64
	TStat    float64
	PValue   float64
}

// Fit is the outcome of an OLS fit with intercept.
// Statistics that are undefined for the data are NaN.
type Fit struct {
	NObs    int
	Rank    int
	DFResid int
	R2      float64
	R2Adj   float64
	SSR     float64

	// Intercept first, then the named columns in order
	Coefficients []Coefficient
}

// Coefficient looks up a term by name
func (f *Fit) Coefficient(name string) (Coefficient, bool) {
	for _, c := range f.Coefficients {
		if c.Name == name {
			return c, true
		}
	}
	return Coefficient{}, false
}

// R2 fits y on the columns plus an intercept and returns the coefficient of
// determination. It never fails: no rows, a constant response or non-finite
// input yield NaN.
func R2(columns [][]float64, y []float64) float64 {
	x, ok := design(columns, y)
	if !ok {
		return math.NaN()
	}
	sol, ok := leastSquares(x, y)
	if !ok {
		return math.NaN()
	}
	ssr, sst := sumsOfSquares(x, sol.beta, y)
	return rSquared(ssr, sst)
}

// FitOLS fits y on the named columns plus an intercept. Rows must already be
// complete. Rank-deficient designs get the minimum-norm solution and the
// pseudo-inverse covariance.
func FitOLS(names []string, columns [][]float64, y []float64) *Fit {
	n := len(y)
	fit := &Fit{
		NObs:  n,
		R2:    math.NaN(),
		R2Adj: math.NaN(),
		SSR:   math.NaN(),
	}
	terms := append([]string{InterceptName}, names...)
	fit.Coefficients = make([]Coefficient, len(terms))
	for i, name := range terms {
		fit.Coefficients[i] = Coefficient{
			Name: name, Estimate: math.NaN(), StdErr: math.NaN(), TStat: math.NaN(), PValue: math.NaN(),
		}
	}

	x, ok := design(columns, y)
	if !ok {
		return fit
	}
	sol, ok := leastSquares(x, y)
	if !ok {
		return fit
	}

	ssr, sst := sumsOfSquares(x, sol.beta, y)
	fit.Rank = sol.rank
	fit.DFResid = n - sol.rank
	fit.SSR = ssr
	fit.R2 = rSquared(ssr, sst)
	if fit.DFResid > 0 {
		fit.R2Adj = 1 - float64(n-1)/float64(fit.DFResid)*(1-fit.R2)
	}

	scale := math.NaN()
	if fit.DFResid > 0 {
		scale = ssr / float64(fit.DFResid)
	}
	var v mat.Dense
	sol.svd.VTo(&v)
	s := sol.svd.Values(nil)
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(fit.DFResid)}

	for j := range fit.Coefficients {
		c := &fit.Coefficients[j]
		c.Estimate = sol.beta.AtVec(j)
		if fit.DFResid <= 0 {
			continue
		}
		// diagonal of (XᵀX)⁺ = V Σ⁻² Vᵀ restricted to the numerical rank
		var d float64
		for k := 0; k < sol.rank; k++ {
			vjk := v.At(j, k)
			d += vjk * vjk / (s[k] * s[k])
		}
		c.StdErr = math.Sqrt(scale * d)
		c.TStat = c.Estimate / c.StdErr
		if !math.IsNaN(c.TStat) {
			c.PValue = 2 * t.Survival(math.Abs(c.TStat))
		}
	}
	return fit
}

type solution struct {
	beta *mat.VecDense
	svd  *mat.SVD
	rank int
}

// leastSquares solves min ||Xb - y|| with the minimum-norm solution for
// rank-deficient X. Singular values below eps·max(n,p) relative to the
// largest are treated as zero.
func leastSquares(x *mat.Dense, y []float64) (solution, bool) {
	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDThin) {
		return solution{}, false
	}
	n, p := x.Dims()
	rank := svd.Rank(epsilon * float64(max(n, p)))

	beta := mat.NewVecDense(p, nil)
	if rank > 0 {
		svd.SolveVecTo(beta, mat.NewVecDense(n, y), rank)
	}
	return solution{beta: beta, svd: &svd, rank: rank}, true
}

const epsilon = 2.220446049250313e-16

// design prepends the intercept column. It rejects empty, ragged or
// non-finite input.
func design(columns [][]float64, y []float64) (*mat.Dense, bool) {
	n := len(y)
	if n == 0 {
		return nil, false
	}
	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
	}
	p := len(columns) + 1
	data := make([]float64, n*p)
	for i := 0; i < n; i++ {
		row := data[i*p : (i+1)*p]
		row[0] = 1
		for j, col := range columns {
			if len(col) != n {
				return nil, false
			}
			v := col[i]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, false
			}
			row[j+1] = v
		}
	}
	return mat.NewDense(n, p, data), true
}

func sumsOfSquares(x *mat.Dense, beta *mat.VecDense, y []float64) (ssr, sst float64) {
	n, _ := x.Dims()
	var fitted mat.VecDense
	fitted.MulVec(x, beta)

	var mean float64
	for _, v := range y {
		mean += v
	}
	mean /= float64(n)

	for i, v := range y {
		r := v - fitted.AtVec(i)
		ssr += r * r
		d := v - mean
		sst += d * d
	}
	return ssr, sst
}

func rSquared(ssr, sst float64) float64 {
	if sst == 0 {
		return math.NaN()
	}
	return 1 - ssr/sst
}
