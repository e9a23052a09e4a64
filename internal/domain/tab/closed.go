package tab

import "github.com/Fawazpw/Project-Sol/internal/domain/navigation"

// ClosedStack remembers closed tabs for "restore closed tab". It lives for
// the process only. A limit of zero means unbounded; when bounded, the
// oldest entry is dropped.
type ClosedStack struct {
	limit   int
	targets []navigation.Target
}

// NewClosedStack creates a stack holding at most limit targets.
func NewClosedStack(limit int) *ClosedStack {
	return &ClosedStack{limit: limit}
}

// Push records a closed target.
func (s *ClosedStack) Push(t navigation.Target) {
	s.targets = append(s.targets, t)
	if s.limit > 0 && len(s.targets) > s.limit {
		s.targets = append(s.targets[:0], s.targets[len(s.targets)-s.limit:]...)
	}
}

// Pop returns the most recently closed target.
func (s *ClosedStack) Pop() (navigation.Target, bool) {
	if len(s.targets) == 0 {
		return navigation.Target{}, false
	}
	last := s.targets[len(s.targets)-1]
	s.targets = s.targets[:len(s.targets)-1]
	return last, true
}

// Len returns the number of remembered targets.
func (s *ClosedStack) Len() int { return len(s.targets) }

// Clear forgets every target.
func (s *ClosedStack) Clear() { s.targets = nil }
