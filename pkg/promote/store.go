// Package promote records promotion candidates: produced files whose
// content should be offered back to the user as corrections to tracked
// source files. Candidates are registered by the diff engine and consumed
// later by the promote workflow.
package promote

import "sync"

// Candidate pairs a tracked source file with the produced correction file.
type Candidate struct {
	Source     string `yaml:"source"`
	Correction string `yaml:"correction"`
	// Intermediate marks the weaker bookkeeping registered for optional
	// (advisory) diffs.
	Intermediate bool `yaml:"intermediate,omitempty"`
}

// Store accepts promotion registrations.
type Store interface {
	// RegisterCorrection records that correction should be offered as a
	// replacement for source.
	RegisterCorrection(source, correction string) error

	// RegisterIntermediate records the advisory variant for optional
	// diffs.
	RegisterIntermediate(source, correction string) error
}

// Memory is an in-process Store, used by the engine when no persistent
// store is configured and by tests.
type Memory struct {
	mu         sync.Mutex
	candidates []Candidate
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// RegisterCorrection implements Store.
func (m *Memory) RegisterCorrection(source, correction string) error {
	m.add(Candidate{Source: source, Correction: correction})
	return nil
}

// RegisterIntermediate implements Store.
func (m *Memory) RegisterIntermediate(source, correction string) error {
	m.add(Candidate{Source: source, Correction: correction, Intermediate: true})
	return nil
}

// Candidates returns a copy of everything registered so far.
func (m *Memory) Candidates() []Candidate {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Candidate, len(m.candidates))
	copy(out, m.candidates)
	return out
}

func (m *Memory) add(c Candidate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// A re-run of the same action re-registers the same pair; keep one.
	for i, existing := range m.candidates {
		if existing.Source == c.Source && existing.Correction == c.Correction {
			m.candidates[i] = c
			return
		}
	}
	m.candidates = append(m.candidates, c)
}
