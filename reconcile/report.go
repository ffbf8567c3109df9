// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"sort"
	"sync"
)

// Outcome is the terminal state of one room's reconciliation.
type Outcome string

const (
	// OutcomeReconciled means the room matches its desired state.
	OutcomeReconciled Outcome = "reconciled"
	// OutcomeFailed means a remote operation for this room failed.
	OutcomeFailed Outcome = "failed"
	// OutcomeSkipped means an ancestor failed to produce a room ID,
	// so this room was never attempted.
	OutcomeSkipped Outcome = "skipped"
)

// Result records the terminal state of one room.
type Result struct {
	// Path locates the declaration in the tree.
	Path string
	// Room is the declared identifier (ID or alias).
	Room string
	Outcome Outcome
	// Err is set for OutcomeFailed.
	Err error
}

// Report collects results across concurrently reconciled branches.
type Report struct {
	mu      sync.Mutex
	results []Result
}

func (r *Report) add(result Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

// Results returns all results, sorted by path for deterministic
// output.
func (r *Report) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	results := make([]Result, len(r.results))
	copy(results, r.results)
	sort.Slice(results, func(i, j int) bool {
		if results[i].Path != results[j].Path {
			return results[i].Path < results[j].Path
		}
		return results[i].Room < results[j].Room
	})
	return results
}

// Failed reports whether any room failed or was skipped. The run
// exits non-zero when this is true.
func (r *Report) Failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, result := range r.results {
		if result.Outcome != OutcomeReconciled {
			return true
		}
	}
	return false
}
