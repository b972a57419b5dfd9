// Package isam: the optimization engine.
package isam

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/slamkit/core"
	"github.com/katalvlaran/slamkit/metrics"
	"github.com/katalvlaran/slamkit/ordering"
	"github.com/katalvlaran/slamkit/sparse"
)

// Engine drives incremental and batch optimization over one factor
// graph. It is the only writer of node estimates, linearization points
// and column indices. Not safe for concurrent use.
type Engine struct {
	g   *core.Graph
	sys *sparse.System
	cfg Config
	log *slog.Logger

	step  int           // accepted updates since construction
	order []core.NodeID // placed nodes, ascending column order
}

// New creates an engine over g with the default configuration,
// adjusted by opts.
func New(g *core.Graph, opts ...Option) *Engine {
	e := &Engine{g: g, cfg: DefaultConfig(), log: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	e.sys = sparse.NewSystem(0, sparse.WithPivotTolerance(e.cfg.PivotTolerance))

	return e
}

// Graph returns the underlying factor graph.
func (e *Engine) Graph() *core.Graph { return e.g }

// Config returns the engine's effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Add runs the per-measurement update path:
//  1. validate the factor's structure,
//  2. initialize its still-uninitialized nodes from the predicted value,
//  3. append any new nodes to the end of the current ordering,
//  4. linearize and fold the weighted Jacobian rows into the triangle,
//  5. every ModSolve-th update: back-substitute and apply the delta;
//     every ModBatch-th update: full relinearization sweep instead.
//
// Structural and precondition failures (steps 1–2) abort before any
// mutation of the graph or the sparse system. Rank deficiencies met
// while solving come back as warnings inside Stats.
func (e *Engine) Add(f core.Factor) (Stats, error) {
	var st Stats
	if err := e.g.ValidateFactor(f); err != nil {
		return st, err
	}
	if err := f.Initialize(e.g); err != nil {
		return st, err
	}
	for _, id := range f.NodeIDs() {
		n, _ := e.g.Node(id)
		if !n.Initialized() {
			return st, fmt.Errorf("isam: add %s: node %d: %w", f.Name(), id, core.ErrUninitializedNode)
		}
	}
	if err := e.g.AddFactor(f); err != nil {
		return st, err
	}
	if err := e.place(f.NodeIDs()); err != nil {
		return st, err
	}

	jac, err := core.Linearize(e.g, f, e.cfg.NumericalStep)
	if err != nil {
		return st, err
	}
	if err := e.sys.InsertJacobian(e.g, jac); err != nil {
		return st, err
	}
	st.Rotations = e.sys.Factorize()
	metrics.FactorsAdded.WithLabelValues(f.Name()).Inc()
	metrics.GivensRotations.Add(float64(st.Rotations))
	metrics.SystemNonzeros.Set(float64(e.sys.NNZ()))

	e.step++
	st.Step = e.step
	switch {
	case e.step%e.cfg.ModBatch == 0:
		norm, warns, err := e.relinearizeAll()
		if err != nil {
			return st, err
		}
		st.Relinearized = true
		st.Iterations = 1
		st.DeltaNorm = norm
		st.Warnings = warns
	case e.step%e.cfg.ModSolve == 0:
		start := time.Now()
		norm, warns := e.solveAndApply()
		metrics.SolveDuration.WithLabelValues("incremental").Observe(time.Since(start).Seconds())
		st.Iterations = 1
		st.DeltaNorm = norm
		st.Warnings = warns
	}

	return st, nil
}

// BatchOptimize relinearizes every factor at the current estimates,
// reorders the variables, rebuilds and refactorizes the system, solves,
// and applies the full delta: iterated Gauss-Newton until the delta
// norm falls below Epsilon or MaxIterations is reached. When the cap is
// hit, the last iterate is kept and a ConvergenceWarning is attached.
func (e *Engine) BatchOptimize() (Stats, error) {
	st := Stats{Relinearized: true}
	for iter := 1; iter <= e.cfg.MaxIterations; iter++ {
		norm, warns, err := e.relinearizeAll()
		st.Iterations = iter
		st.DeltaNorm = norm
		st.Warnings = warns
		if err != nil {
			return st, err
		}
		if norm < e.cfg.Epsilon {
			st.Converged = true

			break
		}
	}
	st.Step = e.step
	if !st.Converged {
		w := &ConvergenceWarning{Iterations: st.Iterations, DeltaNorm: st.DeltaNorm}
		st.Warnings = append(st.Warnings, w)
		e.log.Warn("batch optimization hit iteration cap",
			"iterations", w.Iterations, "delta_norm", w.DeltaNorm)
	}

	return st, nil
}

// Covariances recovers the marginal covariance block of each requested
// node from the current triangular factor. This is the expensive,
// opt-in query path; it never runs as part of Add.
func (e *Engine) Covariances(ids ...core.NodeID) (map[core.NodeID]*mat.SymDense, error) {
	e.sys.Factorize()
	out := make(map[core.NodeID]*mat.SymDense, len(ids))
	for _, id := range ids {
		n, err := e.g.Node(id)
		if err != nil {
			return nil, err
		}
		if n.Col() < 0 {
			return nil, fmt.Errorf("isam: node %d: %w", id, sparse.ErrColumnUnassigned)
		}
		block, err := e.sys.CovarianceBlock(n.Col(), n.Dim())
		if err != nil {
			return nil, err
		}
		out[id] = block
	}

	return out, nil
}

// place appends not-yet-placed nodes to the end of the current
// ordering, assigning their columns and setting their linearization
// point to the fresh estimate.
func (e *Engine) place(ids []core.NodeID) error {
	for _, id := range ids {
		n, err := e.g.Node(id)
		if err != nil {
			return err
		}
		if n.Col() >= 0 {
			continue
		}
		col := e.sys.NumCols()
		e.sys.Grow(col + n.Dim())
		if err := e.g.SetCol(id, col); err != nil {
			return err
		}
		if err := e.g.Relinearize(id); err != nil {
			return err
		}
		e.order = append(e.order, id)
	}

	return nil
}

// solveAndApply back-substitutes the triangle and applies the delta to
// every placed node's estimate (relative to its linearization point).
// Deficient columns are translated to their owning nodes and reported
// as warnings; the corresponding delta entries are zero.
func (e *Engine) solveAndApply() (float64, []error) {
	delta, deficient := e.sys.Solve()

	var warns []error
	for _, col := range deficient {
		id := e.nodeAtColumn(col)
		w := &RankDeficiencyWarning{Column: col, Node: id}
		warns = append(warns, w)
		e.log.Warn("rank deficiency", "column", col, "node", int(id))
	}
	if len(deficient) > 0 {
		metrics.RankDeficiencies.Add(float64(len(deficient)))
	}

	for _, id := range e.order {
		n, _ := e.g.Node(id)
		vec := n.Value0().Vector()
		for j := range vec {
			vec[j] += delta[n.Col()+j]
		}
		v, err := n.Value0().WithVector(vec)
		if err == nil {
			err = e.g.SetEstimate(id, v)
		}
		if err != nil {
			// Dimensions were validated at placement; reaching here is a bug.
			panic(fmt.Sprintf("isam: apply delta to node %d: %v", id, err))
		}
	}

	return floats.Norm(delta, 2), warns
}

// relinearizeAll is the batch boundary: recompute a fill-reducing
// ordering, move every linearization point to the current estimate,
// rebuild the system from all factors and refactorize, then solve and
// apply. The sparse system's version is bumped by the rebuild, making
// stale column indices unusable.
func (e *Engine) relinearizeAll() (float64, []error, error) {
	metrics.Relinearizations.Inc()

	// Variable adjacency: nodes sharing a factor are neighbors.
	n := e.g.NumNodes()
	adj := make([][]int, n)
	for _, f := range e.g.Factors() {
		ids := f.NodeIDs()
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				adj[int(ids[i])] = append(adj[int(ids[i])], int(ids[j]))
			}
		}
	}
	elim := ordering.MinimumDegree(n, adj)

	// Reassign columns in elimination order; uninitialized nodes (never
	// touched by a factor) stay unplaced.
	e.order = e.order[:0]
	col := 0
	for _, v := range elim {
		id := core.NodeID(v)
		nd, _ := e.g.Node(id)
		if !nd.Initialized() {
			continue
		}
		if err := e.g.SetCol(id, col); err != nil {
			return 0, nil, err
		}
		if err := e.g.Relinearize(id); err != nil {
			return 0, nil, err
		}
		e.order = append(e.order, id)
		col += nd.Dim()
	}

	e.sys.Reset(col)
	start := time.Now()
	rotations := 0
	for _, f := range e.g.Factors() {
		jac, err := core.Linearize(e.g, f, e.cfg.NumericalStep)
		if err != nil {
			return 0, nil, err
		}
		if err := e.sys.InsertJacobian(e.g, jac); err != nil {
			return 0, nil, err
		}
	}
	rotations = e.sys.Factorize()
	metrics.GivensRotations.Add(float64(rotations))
	metrics.SystemNonzeros.Set(float64(e.sys.NNZ()))

	norm, warns := e.solveAndApply()
	metrics.SolveDuration.WithLabelValues("batch").Observe(time.Since(start).Seconds())
	e.log.Debug("relinearization sweep",
		"nodes", len(e.order), "factors", e.g.NumFactors(),
		"columns", col, "rotations", rotations, "delta_norm", norm)

	return norm, warns, nil
}

// nodeAtColumn maps a scalar column back to the node owning it.
func (e *Engine) nodeAtColumn(col int) core.NodeID {
	i := sort.Search(len(e.order), func(i int) bool {
		n, _ := e.g.Node(e.order[i])

		return n.Col() > col
	})
	if i == 0 {
		return -1
	}

	return e.order[i-1]
}
