package services

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
)

// GeneticParams are the hyperparameters of the genetic solver.
type GeneticParams struct {
	PopulationSize int
	Generations    int
	MutationRate   float64
	CrossoverRate  float64
	ElitismRate    float64
	TournamentSize int
	// Goroutines used for fitness evaluation; <= 0 means GOMAXPROCS.
	Workers int
	// Place the nearest-neighbor tour in the initial population.
	SeedWithGreedy bool
}

func DefaultGeneticParams() GeneticParams {
	return GeneticParams{
		PopulationSize: 100,
		Generations:    500,
		MutationRate:   0.01,
		CrossoverRate:  0.7,
		ElitismRate:    0.1,
		TournamentSize: 3,
		SeedWithGreedy: true,
	}
}

// Validate rejects parameter sets the solver cannot run with.
func (p GeneticParams) Validate() error {
	if p.PopulationSize < 2 {
		return invalidInput("genetic population size must be at least 2, got %d", p.PopulationSize)
	}
	if p.Generations < 1 {
		return invalidInput("genetic generations must be at least 1, got %d", p.Generations)
	}
	if p.TournamentSize < 1 {
		return invalidInput("genetic tournament size must be at least 1, got %d", p.TournamentSize)
	}
	rates := []struct {
		name  string
		value float64
	}{
		{"mutation", p.MutationRate},
		{"crossover", p.CrossoverRate},
		{"elitism", p.ElitismRate},
	}
	for _, r := range rates {
		if math.IsNaN(r.value) || r.value < 0 || r.value > 1 {
			return invalidInput("genetic %s rate must be within [0, 1], got %v", r.name, r.value)
		}
	}
	return nil
}

func (p GeneticParams) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (p GeneticParams) eliteCount() int {
	k := int(math.Ceil(p.ElitismRate * float64(p.PopulationSize)))
	return min(k, p.PopulationSize)
}

// chromosome is one candidate visiting order of the non-start stops.
type chromosome struct {
	genes   []int
	length  float64
	fitness float64
}

// fitnessOf maps a path length to a strictly positive score; shorter is better.
func fitnessOf(length float64) float64 {
	return 1 / (1 + length)
}

// SolveGenetic searches for a short open path with a generational genetic
// algorithm and returns the best tour seen in any generation.
//
// All randomness comes from rng, which is only used by the calling goroutine;
// fitness evaluation fans out across workers and joins before breeding, so a
// fixed seed reproduces the same tour regardless of the worker count.
func SolveGenetic(ctx context.Context, m DistanceMatrix, params GeneticParams, rng *rand.Rand) ([]int, float64, error) {
	if err := params.Validate(); err != nil {
		return nil, 0, err
	}
	if rng == nil {
		return nil, 0, invalidInput("genetic solver requires a random source")
	}

	base := stopIndices(m)
	if len(base) <= 1 {
		return base, pathLength(m, base), nil
	}

	pop := make([]chromosome, params.PopulationSize)
	for i := range pop {
		genes := slices.Clone(base)
		rng.Shuffle(len(genes), func(a, b int) { genes[a], genes[b] = genes[b], genes[a] })
		pop[i].genes = genes
	}

	if params.SeedWithGreedy {
		greedy, _, err := SolveGreedy(ctx, m)
		if err != nil {
			return nil, 0, err
		}
		pop[0].genes = greedy
	}

	if err := evaluate(m, pop, params.workers()); err != nil {
		return nil, 0, err
	}

	best := chromosome{length: math.Inf(1)}
	best = fittest(pop, best)

	elites := params.eliteCount()
	next := make([]chromosome, params.PopulationSize)

	for gen := 0; gen < params.Generations; gen++ {
		if err := checkCtx(ctx, "genetic search"); err != nil {
			return nil, 0, err
		}

		// Highest fitness first; stable so equal tours keep their order.
		slices.SortStableFunc(pop, func(a, b chromosome) int {
			switch {
			case a.length < b.length:
				return -1
			case a.length > b.length:
				return 1
			default:
				return 0
			}
		})

		for i := 0; i < elites; i++ {
			next[i] = chromosome{genes: slices.Clone(pop[i].genes), length: pop[i].length, fitness: pop[i].fitness}
		}

		for i := elites; i < len(next); i++ {
			a := tournament(pop, params.TournamentSize, rng)
			var genes []int
			if rng.Float64() < params.CrossoverRate {
				b := tournament(pop, params.TournamentSize, rng)
				genes = orderedCrossover(a.genes, b.genes, rng)
			} else {
				genes = slices.Clone(a.genes)
			}
			mutateSwap(genes, params.MutationRate, rng)
			next[i] = chromosome{genes: genes}
		}

		if err := evaluate(m, next[elites:], params.workers()); err != nil {
			return nil, 0, err
		}

		pop, next = next, pop
		best = fittest(pop, best)
	}

	return best.genes, best.length, nil
}

// evaluate scores every chromosome. Work is split into contiguous chunks, one
// per worker; each worker writes only its own slots and Wait is the barrier.
func evaluate(m DistanceMatrix, pop []chromosome, workers int) error {
	if len(pop) == 0 {
		return nil
	}
	workers = max(1, min(workers, len(pop)))
	chunk := (len(pop) + workers - 1) / workers

	var g errgroup.Group
	for start := 0; start < len(pop); start += chunk {
		end := min(start+chunk, len(pop))
		g.Go(func() error {
			for i := start; i < end; i++ {
				pop[i].length = pathLength(m, pop[i].genes)
				pop[i].fitness = fitnessOf(pop[i].length)
			}
			return nil
		})
	}
	return g.Wait()
}

// fittest returns the shorter of best and the best member of pop.
// The returned chromosome owns its genes.
func fittest(pop []chromosome, best chromosome) chromosome {
	for i := range pop {
		if pop[i].length < best.length {
			best = chromosome{genes: slices.Clone(pop[i].genes), length: pop[i].length, fitness: pop[i].fitness}
		}
	}
	return best
}

// tournament picks size random members and returns the fittest of them.
func tournament(pop []chromosome, size int, rng *rand.Rand) chromosome {
	winner := pop[rng.Intn(len(pop))]
	for i := 1; i < size; i++ {
		c := pop[rng.Intn(len(pop))]
		if c.fitness > winner.fitness {
			winner = c
		}
	}
	return winner
}

// orderedCrossover (OX1) copies a random slice of a into the child and fills
// the remaining positions with b's genes in b's order, starting after the slice.
// Genes are the values 1..len(a), so the child is always a permutation.
func orderedCrossover(a, b []int, rng *rand.Rand) []int {
	size := len(a)
	i, j := rng.Intn(size), rng.Intn(size)
	if i > j {
		i, j = j, i
	}

	child := make([]int, size)
	used := make([]bool, size+1)
	for k := i; k <= j; k++ {
		child[k] = a[k]
		used[a[k]] = true
	}

	pos := (j + 1) % size
	for k := 0; k < size; k++ {
		g := b[(j+1+k)%size]
		if used[g] {
			continue
		}
		child[pos] = g
		pos = (pos + 1) % size
	}
	return child
}

// mutateSwap swaps each gene with a random position with probability rate.
func mutateSwap(genes []int, rate float64, rng *rand.Rand) {
	for i := range genes {
		if rng.Float64() < rate {
			k := rng.Intn(len(genes))
			genes[i], genes[k] = genes[k], genes[i]
		}
	}
}
