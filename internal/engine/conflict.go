package engine

import (
	"strconv"
	"sync"
	"time"

	"cowrite/engine/internal/ot"
)

const (
	StrategyServerWins = "server-wins"
	StrategyClientWins = "client-wins"
	StrategyMerge      = "merge"
)

// Strategy picks the winning operation of a conflicting pair.
type Strategy func(a, b ot.Operation) ot.Operation

// Resolution is the immutable audit record of one resolved conflict.
type Resolution struct {
	ID         string       `json:"id"`
	RoomID     string       `json:"roomId"`
	Strategy   string       `json:"strategy"`
	OpA        ot.Operation `json:"opA"`
	OpB        ot.Operation `json:"opB"`
	Resolved   ot.Operation `json:"resolved"`
	ResolvedBy string       `json:"resolvedBy"`
	ResolvedAt time.Time    `json:"resolvedAt"`
}

// Resolver holds the named strategy registry. Custom strategies can be
// registered at runtime under new names.
type Resolver struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

func NewResolver() *Resolver {
	r := &Resolver{strategies: make(map[string]Strategy)}
	r.Register(StrategyServerWins, serverWins)
	r.Register(StrategyClientWins, clientWins)
	r.Register(StrategyMerge, mergeLatest)
	return r
}

func (r *Resolver) Register(name string, s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[name] = s
}

// pick resolves a strategy name; an empty name selects the default merge
// strategy.
func (r *Resolver) pick(name string) (Strategy, string, bool) {
	if name == "" {
		name = StrategyMerge
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[name]
	return s, name, ok
}

func opPriority(op ot.Operation) int {
	if op.Metadata == nil {
		return 0
	}
	n, _ := strconv.Atoi(op.Metadata["priority"])
	return n
}

// serverWins prefers the higher-priority operation and breaks ties toward
// the later timestamp.
func serverWins(a, b ot.Operation) ot.Operation {
	if pa, pb := opPriority(a), opPriority(b); pa != pb {
		if pb > pa {
			return b
		}
		return a
	}
	if b.Timestamp.After(a.Timestamp) {
		return b
	}
	return a
}

// clientWins prefers the higher-priority operation with the inverse
// tie-break: the earlier timestamp wins.
func clientWins(a, b ot.Operation) ot.Operation {
	if pa, pb := opPriority(a), opPriority(b); pa != pb {
		if pb > pa {
			return b
		}
		return a
	}
	if b.Timestamp.Before(a.Timestamp) {
		return b
	}
	return a
}

// mergeLatest picks the later-timestamp operation. This is a documented
// heuristic, not content-level merging.
func mergeLatest(a, b ot.Operation) ot.Operation {
	if b.Timestamp.After(a.Timestamp) {
		return b
	}
	return a
}
