package services

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ctxCheckInterval is how many search nodes are expanded between ctx checks.
const ctxCheckInterval = 4096

// SolveExact enumerates every visiting order of the non-start stops and returns
// the shortest open path from index 0.
//
// Orders are enumerated lexicographically; among equal-length tours the first
// one found wins. Each first-stop branch is searched on its own goroutine with
// its own path buffer, and branches are merged by (length, branch order), which
// yields the same answer as a single sequential enumeration.
func SolveExact(ctx context.Context, m DistanceMatrix) ([]int, float64, error) {
	n := m.Size()
	if n <= 1 {
		return []int{}, 0, nil
	}
	if err := checkCtx(ctx, "exact search"); err != nil {
		return nil, 0, err
	}

	branches := make([]exactSearch, n-1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for b := range branches {
		first := b + 1
		g.Go(func() error {
			s := newExactSearch(gctx, m)
			s.visited[first] = true
			s.path = append(s.path, first)
			s.extend(first, m[0][first])
			branches[b] = *s
			return s.err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, timeoutErr("exact search", err)
	}

	winner := -1
	for b := range branches {
		if !branches[b].found {
			continue
		}
		if winner < 0 || branches[b].bestCost < branches[winner].bestCost {
			winner = b
		}
	}
	if winner < 0 {
		return nil, 0, fmt.Errorf("%w: exact search produced no tour", ErrInternalInconsistency)
	}

	return branches[winner].best, branches[winner].bestCost, nil
}

// exactSearch is the state of one depth-first branch. path and visited are
// mutated on the way down and restored on backtrack; they are never shared.
type exactSearch struct {
	ctx      context.Context
	m        DistanceMatrix
	path     []int
	visited  []bool
	best     []int
	bestCost float64
	found    bool
	nodes    int
	err      error
}

func newExactSearch(ctx context.Context, m DistanceMatrix) *exactSearch {
	n := m.Size()
	s := &exactSearch{
		ctx:     ctx,
		m:       m,
		path:    make([]int, 0, n-1),
		visited: make([]bool, n),
		best:    make([]int, 0, n-1),
	}
	s.visited[0] = true
	return s
}

func (s *exactSearch) extend(prev int, cost float64) {
	if s.err != nil {
		return
	}

	s.nodes++
	if s.nodes%ctxCheckInterval == 0 {
		if err := s.ctx.Err(); err != nil {
			s.err = err
			return
		}
	}

	n := len(s.visited)
	if len(s.path) == n-1 {
		if !s.found || cost < s.bestCost {
			s.best = append(s.best[:0], s.path...)
			s.bestCost = cost
			s.found = true
		}
		return
	}

	// Distances are nonnegative, so a partial path already at the best
	// length cannot finish strictly shorter.
	if s.found && cost >= s.bestCost {
		return
	}

	for next := 1; next < n; next++ {
		if s.visited[next] {
			continue
		}
		s.visited[next] = true
		s.path = append(s.path, next)

		s.extend(next, cost+s.m[prev][next])

		s.path = s.path[:len(s.path)-1]
		s.visited[next] = false
	}
}
