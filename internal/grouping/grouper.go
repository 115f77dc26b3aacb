package grouping

import "github.com/logsleuth/logsleuth/internal/traceback"

// GroupSet is an insertion ordered collection of error groups keyed by
// signature. Iteration order follows the first occurrence of each signature
// in the input, which keeps downstream ranking deterministic.
type GroupSet struct {
	order  []string
	groups map[string]*ErrorGroup
}

// NewGroupSet creates an empty GroupSet.
func NewGroupSet() *GroupSet {
	return &GroupSet{groups: make(map[string]*ErrorGroup)}
}

// Add appends a record to the group for its signature, creating the group on
// first sight.
func (s *GroupSet) Add(rec *traceback.ErrorRecord) {
	sig := Signature(rec)
	group, ok := s.groups[sig]
	if !ok {
		group = &ErrorGroup{Signature: sig}
		s.groups[sig] = group
		s.order = append(s.order, sig)
	}
	group.Records = append(group.Records, rec)
}

// Get returns the group for a signature.
func (s *GroupSet) Get(sig string) (*ErrorGroup, bool) {
	group, ok := s.groups[sig]
	return group, ok
}

// Groups returns the groups in first seen order.
func (s *GroupSet) Groups() []*ErrorGroup {
	out := make([]*ErrorGroup, 0, len(s.order))
	for _, sig := range s.order {
		out = append(out, s.groups[sig])
	}
	return out
}

// Signatures returns the signatures in first seen order.
func (s *GroupSet) Signatures() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of distinct groups.
func (s *GroupSet) Len() int {
	return len(s.order)
}

// Group clusters records by signature in a single pass over the input.
// Records never vanish: every input record lands in exactly one group, and
// the total count across groups equals the input length.
func Group(records []*traceback.ErrorRecord) *GroupSet {
	set := NewGroupSet()
	for _, rec := range records {
		set.Add(rec)
	}
	return set
}
