package services

import "fmt"

// Strategy names the solver used for a request.
type Strategy string

const (
	StrategyExact   Strategy = "exact"
	StrategyGenetic Strategy = "genetic"
	StrategyGreedy  Strategy = "greedy"
)

const (
	// Largest stop count solved by exhaustive search (O(n!)).
	ExactMaxStops = 10
	// Largest stop count handed to the genetic solver.
	GeneticMaxStops = 25
	// Explicit exact requests are refused above this size.
	ExactHardLimit = 12
)

// SelectStrategy picks a solver from the number of non-start stops.
func SelectStrategy(n int) Strategy {
	switch {
	case n <= ExactMaxStops:
		return StrategyExact
	case n <= GeneticMaxStops:
		return StrategyGenetic
	default:
		return StrategyGreedy
	}
}

// ParseStrategy validates a caller-supplied strategy override. An empty
// string means "choose automatically".
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "":
		return "", nil
	case StrategyExact, StrategyGenetic, StrategyGreedy:
		return Strategy(s), nil
	default:
		return "", invalidInput("unknown strategy %q", s)
	}
}

func (s Strategy) String() string { return string(s) }

func (s Strategy) validFor(n int) error {
	if s == StrategyExact && n > ExactHardLimit {
		return fmt.Errorf("%w: exact strategy supports at most %d stops, got %d", ErrInvalidInput, ExactHardLimit, n)
	}
	return nil
}
