package domain

import "time"

// Filter narrows a ledger query. Zero values mean "no filter" for that field.
// Results are always ordered by sequence number.
type Filter struct {
	Principal string
	Operation Operation
	Outcome   Outcome
	From      *time.Time // Inclusive lower timestamp bound
	To        *time.Time // Inclusive upper timestamp bound
	Offset    int
	Limit     int
}

// Matches reports whether the entry satisfies the filter's field constraints.
// Offset and Limit are pagination concerns and are not evaluated here.
func (f *Filter) Matches(entry *Entry) bool {
	if f.Principal != "" && entry.Principal != f.Principal {
		return false
	}
	if f.Operation != "" && entry.Operation != f.Operation {
		return false
	}
	if f.Outcome != "" && entry.Outcome != f.Outcome {
		return false
	}
	if f.From != nil && entry.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && entry.Timestamp.After(*f.To) {
		return false
	}
	return true
}

// Report summarizes ledger activity over a time window.
type Report struct {
	TotalEntries  uint64
	FirstSequence uint64
	LastSequence  uint64
	ByOperation   map[Operation]uint64
	ByOutcome     map[Outcome]uint64
	ByPrincipal   map[string]uint64
}
