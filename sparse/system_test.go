// Package sparse_test validates the square-root information system
// against dense linear algebra: factorizing measurement rows must
// reproduce the full least-squares solution, whether the rows arrive
// all at once or incrementally, and covariance recovery must match a
// dense inverse.
package sparse_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/slamkit/sparse"
)

const tol = 1e-9

// insertDense feeds every row of A (with right-hand side b) into the system.
func insertDense(t *testing.T, s *sparse.System, a *mat.Dense, b []float64, from, to int) {
	t.Helper()
	_, n := a.Dims()
	cols := make([]int, n)
	for j := range cols {
		cols[j] = j
	}
	for i := from; i < to; i++ {
		require.NoError(t, s.InsertRow(cols, a.RawRowView(i), b[i]))
	}
}

// denseLeastSquares solves min ‖Ax − b‖ with gonum's dense QR.
func denseLeastSquares(t *testing.T, a *mat.Dense, b []float64) []float64 {
	t.Helper()
	m, n := a.Dims()
	var x mat.Dense
	require.NoError(t, x.Solve(a, mat.NewDense(m, 1, b)))
	out := make([]float64, n)
	for j := 0; j < n; j++ {
		out[j] = x.At(j, 0)
	}

	return out
}

func randomSystem(rng *rand.Rand, m, n int) (*mat.Dense, []float64) {
	a := mat.NewDense(m, n, nil)
	b := make([]float64, m)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			a.Set(i, j, rng.NormFloat64())
		}
		b[i] = rng.NormFloat64()
	}

	return a, b
}

func TestInsertRow_Validation(t *testing.T) {
	s := sparse.NewSystem(3)

	err := s.InsertRow([]int{0, 1}, []float64{1}, 0)
	require.ErrorIs(t, err, sparse.ErrBadRow)

	err = s.InsertRow([]int{1, 0}, []float64{1, 2}, 0)
	require.ErrorIs(t, err, sparse.ErrBadRow, "unsorted columns")

	err = s.InsertRow([]int{0, 3}, []float64{1, 2}, 0)
	require.ErrorIs(t, err, sparse.ErrBadRow, "column out of range")

	// All-zero rows are pure residual and silently dropped.
	require.NoError(t, s.InsertRow([]int{0, 1}, []float64{0, 0}, 1))
	assert.Equal(t, 0, s.NNZ())
}

func TestFactorizeSolve_MatchesDenseLeastSquares(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a, b := randomSystem(rng, 12, 5)

	s := sparse.NewSystem(5)
	insertDense(t, s, a, b, 0, 12)
	s.Factorize()

	delta, deficient := s.Solve()
	require.Empty(t, deficient)

	want := denseLeastSquares(t, a, b)
	for j := range want {
		assert.InDelta(t, want[j], delta[j], tol, "delta[%d]", j)
	}
}

func TestIncrementalFactorize_EquivalentToBatch(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	a, b := randomSystem(rng, 20, 6)

	// Incremental: rows arrive in four chunks, factorized after each.
	inc := sparse.NewSystem(6)
	for c := 0; c < 4; c++ {
		insertDense(t, inc, a, b, c*5, (c+1)*5)
		inc.Factorize()
	}

	// Batch: all rows at once.
	batch := sparse.NewSystem(6)
	insertDense(t, batch, a, b, 0, 20)
	batch.Factorize()

	di, def := inc.Solve()
	require.Empty(t, def)
	db, _ := batch.Solve()
	for j := range db {
		assert.InDelta(t, db[j], di[j], tol)
	}
}

func TestFactorize_RtRReproducesNormalMatrix(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	a, b := randomSystem(rng, 10, 4)

	s := sparse.NewSystem(4)
	insertDense(t, s, a, b, 0, 10)
	s.Factorize()

	r := s.R()
	var rtr, ata mat.Dense
	rtr.Mul(r.T(), r)
	ata.Mul(a.T(), a)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			assert.InDelta(t, ata.At(i, j), rtr.At(i, j), tol, "RᵀR(%d,%d)", i, j)
		}
	}
}

func TestSolve_RankDeficiencyReported(t *testing.T) {
	// Column 2 is never measured: the solve must flag it and return
	// finite values everywhere, never NaN.
	s := sparse.NewSystem(3)
	require.NoError(t, s.InsertRow([]int{0}, []float64{2}, 4))
	require.NoError(t, s.InsertRow([]int{1}, []float64{1}, 3))
	s.Factorize()

	delta, deficient := s.Solve()
	assert.Equal(t, []int{2}, deficient)
	assert.Equal(t, []int{2}, s.Deficient())
	for _, v := range delta {
		assert.False(t, math.IsNaN(v))
	}
	assert.InDelta(t, 2.0, delta[0], tol)
	assert.InDelta(t, 3.0, delta[1], tol)
	assert.Zero(t, delta[2])

	// Covariance recovery must refuse instead of inventing numbers.
	_, err := s.CovarianceColumn(0)
	require.ErrorIs(t, err, sparse.ErrZeroPivot)
}

func TestCovariance_MatchesDenseInverse(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	a, b := randomSystem(rng, 15, 4)

	s := sparse.NewSystem(4)
	insertDense(t, s, a, b, 0, 15)
	s.Factorize()

	var ata, inv mat.Dense
	ata.Mul(a.T(), a)
	require.NoError(t, inv.Inverse(&ata))

	for j := 0; j < 4; j++ {
		col, err := s.CovarianceColumn(j)
		require.NoError(t, err)
		for i := 0; i < 4; i++ {
			assert.InDelta(t, inv.At(i, j), col[i], 1e-8, "cov(%d,%d)", i, j)
		}
	}

	block, err := s.CovarianceBlock(1, 2)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, inv.At(1+i, 1+j), block.At(i, j), 1e-8)
		}
	}
}

func TestReset_BumpsVersion(t *testing.T) {
	s := sparse.NewSystem(2)
	v0 := s.Version()
	require.NoError(t, s.InsertRow([]int{0}, []float64{1}, 1))
	s.Factorize()
	require.NotZero(t, s.NNZ())

	s.Reset(5)
	assert.Equal(t, v0+1, s.Version())
	assert.Equal(t, 5, s.NumCols())
	assert.Zero(t, s.NNZ())
}

func TestGrow_KeepsExistingTriangle(t *testing.T) {
	s := sparse.NewSystem(2)
	require.NoError(t, s.InsertRow([]int{0, 1}, []float64{1, 2}, 3))
	s.Factorize()
	v := s.Version()

	s.Grow(4)
	assert.Equal(t, 4, s.NumCols())
	assert.Equal(t, v, s.Version(), "growing is not a batch boundary")
	require.NoError(t, s.InsertRow([]int{1, 3}, []float64{1, 1}, 0))
	require.NoError(t, s.InsertRow([]int{2}, []float64{1}, 2))
	require.NoError(t, s.InsertRow([]int{3}, []float64{1}, 1))
	s.Factorize()

	delta, deficient := s.Solve()
	require.Empty(t, deficient)
	assert.Len(t, delta, 4)
}
