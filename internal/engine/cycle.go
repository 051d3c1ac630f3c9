package engine

import "strings"

// DiffStatus is the result of comparing one type pair. Values combine with
// bitwise OR.
type DiffStatus uint8

const (
	NoDiff       DiffStatus = 0
	DirectDiff   DiffStatus = 1
	IndirectDiff DiffStatus = 2
)

// HasDiff reports whether anything changed, directly or in a nested type.
func (s DiffStatus) HasDiff() bool {
	return s != NoDiff
}

// IsDirect reports whether the DirectDiff bit is set.
func (s DiffStatus) IsDirect() bool {
	return s&DirectDiff != 0
}

func (s DiffStatus) String() string {
	switch {
	case s.IsDirect() && s&IndirectDiff != 0:
		return "direct_diff|indirect_diff"
	case s.IsDirect():
		return "direct_diff"
	case s&IndirectDiff != 0:
		return "indirect_diff"
	default:
		return "no_diff"
	}
}

// typeCache remembers every (old, new) type pair visited in one session.
//
// Unlike a stack-based visited set, entries are never removed: a pair
// compared once, fully or through a cycle, answers NoDiff on every later
// visit. This both terminates recursive types and keeps one type's diff
// from being emitted once per referencing API.
type typeCache struct {
	seen map[string]struct{}
}

func newTypeCache() *typeCache {
	return &typeCache{seen: make(map[string]struct{})}
}

// visit records the pair and reports whether this is its first visit.
func (c *typeCache) visit(oldKey, newKey string) bool {
	k := oldKey + "\x00" + newKey
	if _, ok := c.seen[k]; ok {
		return false
	}
	c.seen[k] = struct{}{}
	return true
}

func (c *typeCache) len() int {
	return len(c.seen)
}

// typeStack is the chain of type names under comparison.
type typeStack struct {
	names []string
}

func (s *typeStack) push(name string) {
	s.names = append(s.names, name)
}

func (s *typeStack) pop() {
	if len(s.names) > 0 {
		s.names = s.names[:len(s.names)-1]
	}
}

func (s *typeStack) String() string {
	return strings.Join(s.names, " -> ")
}
