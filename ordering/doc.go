// Package ordering computes fill-reducing variable elimination orders
// for the sparse factorization. The ordering is recomputed periodically
// (not per measurement) by the engine, because changing it invalidates
// every column index and forces a batch refactorization.
//
// The heuristic is minimum degree over the variable-adjacency structure
// of the factor graph: repeatedly eliminate the variable with the
// fewest neighbors, connecting its remaining neighbors into a clique
// (the fill-in its elimination causes). A lazy min-heap with stale-entry
// skipping keeps each step near O(log V) plus the clique update.
//
// The heuristic is a policy choice, not a contract: any permutation is
// correct, better ones just keep R sparser.
package ordering
