// Package history provides the undo stack of full-scene snapshots.
package history

import (
	"bytes"

	"github.com/rs/zerolog"
)

// MaxDepth bounds the stack; committing past it evicts the oldest snapshot.
const MaxDepth = 50

// Snapshot is an opaque serialized copy of the whole scene at one instant.
// Snapshots are immutable once committed.
type Snapshot []byte

// Stack is a bounded, single-direction undo stack. The current scene state is
// always the last element; the stack never shrinks below one entry. There is
// no redo: an undone snapshot is discarded.
//
// Stack is not safe for concurrent use; all access happens on the UI thread.
type Stack struct {
	entries  []Snapshot
	applying bool
	log      zerolog.Logger
}

// New creates a stack seeded with the base scene snapshot.
func New(base Snapshot, log zerolog.Logger) *Stack {
	return &Stack{
		entries: []Snapshot{clone(base)},
		log:     log,
	}
}

// Len returns the number of snapshots on the stack.
func (s *Stack) Len() int {
	return len(s.entries)
}

// CanUndo reports whether undo would change anything. The initial snapshot
// can never be popped.
func (s *Stack) CanUndo() bool {
	return len(s.entries) > 1
}

// Top returns the current snapshot.
func (s *Stack) Top() Snapshot {
	return s.entries[len(s.entries)-1]
}

// Commit pushes a snapshot and reports whether the stack changed. Commits are
// dropped when they are byte-identical to the current top (no-op edits) or
// while a previous snapshot is being materialized back into the scene, which
// would otherwise immediately re-push the undone state.
func (s *Stack) Commit(snap Snapshot) bool {
	if s.applying {
		s.log.Debug().Msg("history: commit suppressed during undo materialization")
		return false
	}
	if bytes.Equal(s.Top(), snap) {
		return false
	}

	s.entries = append(s.entries, clone(snap))
	if len(s.entries) > MaxDepth {
		// Evict the oldest; the slice is small enough that shifting is fine.
		copy(s.entries, s.entries[1:])
		s.entries = s.entries[:MaxDepth]
	}

	s.log.Debug().Int("depth", len(s.entries)).Msg("history: committed snapshot")
	return true
}

// Undo materializes the previous snapshot by invoking apply with it, then
// discards the current top. Returns false with a nil error when there is
// nothing to undo. If apply fails the stack is left unchanged, so a corrupt
// snapshot cannot lose the current state.
//
// Commits issued from inside apply are suppressed.
func (s *Stack) Undo(apply func(Snapshot) error) (bool, error) {
	if !s.CanUndo() {
		return false, nil
	}
	if s.applying {
		// A nested undo request while one is materializing is dropped rather
		// than interleaved.
		s.log.Debug().Msg("history: undo dropped, apply in progress")
		return false, nil
	}

	prev := s.entries[len(s.entries)-2]

	s.applying = true
	err := apply(prev)
	s.applying = false

	if err != nil {
		s.log.Error().Err(err).Msg("history: undo materialization failed, stack unchanged")
		return false, err
	}

	s.entries[len(s.entries)-1] = nil
	s.entries = s.entries[:len(s.entries)-1]
	s.log.Debug().Int("depth", len(s.entries)).Msg("history: undo applied")
	return true, nil
}

// Reset discards the whole stack and re-seeds it with a new base snapshot.
// Used when a document is opened: its prior edit history does not exist here.
func (s *Stack) Reset(base Snapshot) {
	s.entries = s.entries[:0]
	s.entries = append(s.entries, clone(base))
	s.log.Debug().Msg("history: reset")
}

func clone(snap Snapshot) Snapshot {
	out := make(Snapshot, len(snap))
	copy(out, snap)
	return out
}
