package rpc

import (
	"errors"
	"sync"
	"time"
)

// ErrNoHealthyRPC is returned when no healthy RPC endpoint is available.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

// Algorithm defines how an RPC endpoint is selected.
type Algorithm string

const (
	AlgorithmFastest    Algorithm = "fastest"
	AlgorithmRoundRobin Algorithm = "round-robin"
	AlgorithmFailover   Algorithm = "failover"

	// Discard nodes more than this many blocks behind the best.
	staleBlockThreshold = 3
)

// ParseAlgorithm maps a config string to an Algorithm. Empty means fastest.
func ParseAlgorithm(s string) (Algorithm, bool) {
	switch Algorithm(s) {
	case "", AlgorithmFastest:
		return AlgorithmFastest, true
	case AlgorithmRoundRobin, AlgorithmFailover:
		return Algorithm(s), true
	}
	return "", false
}

// Endpoint is one probed RPC URL.
type Endpoint struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	ChainID     int64
	Err         error
}

// Healthy reports whether the probe succeeded.
func (e Endpoint) Healthy() bool { return e.Err == nil }

// Picker chooses among probed endpoints. Round-robin state lives on the
// Picker, so reuse one instance across selections.
type Picker struct {
	algo    Algorithm
	mu      sync.Mutex
	rrIndex int
}

// NewPicker creates a new Picker with the given algorithm.
func NewPicker(algo Algorithm) *Picker {
	return &Picker{algo: algo}
}

// Pick selects an endpoint according to the algorithm.
func (p *Picker) Pick(endpoints []Endpoint) (Endpoint, error) {
	healthy := make([]Endpoint, 0, len(endpoints))
	for _, e := range endpoints {
		if e.Healthy() {
			healthy = append(healthy, e)
		}
	}
	if len(healthy) == 0 {
		return Endpoint{}, ErrNoHealthyRPC
	}

	switch p.algo {
	case AlgorithmFailover:
		return healthy[0], nil
	case AlgorithmRoundRobin:
		p.mu.Lock()
		defer p.mu.Unlock()
		e := healthy[p.rrIndex%len(healthy)]
		p.rrIndex++
		return e, nil
	default:
		return pickFastest(healthy)
	}
}

func pickFastest(healthy []Endpoint) (Endpoint, error) {
	var bestBlock uint64
	for _, e := range healthy {
		if e.BlockNumber > bestBlock {
			bestBlock = e.BlockNumber
		}
	}

	var (
		winner    Endpoint
		found     bool
		bestScore float64
	)
	for _, e := range healthy {
		if bestBlock-e.BlockNumber > staleBlockThreshold {
			continue
		}
		s := score(e, bestBlock)
		if !found || s > bestScore {
			winner, bestScore, found = e, s, true
		}
	}
	if !found {
		return Endpoint{}, ErrNoHealthyRPC
	}
	return winner, nil
}

// score favours low latency and loses a point per block behind the tip.
func score(e Endpoint, bestBlock uint64) float64 {
	var s float64
	if ms := e.Latency.Milliseconds(); ms > 0 {
		s += 1000.0 / float64(ms)
	} else {
		s += 1000.0
	}
	s += float64(10 - (bestBlock - e.BlockNumber))
	return s
}
