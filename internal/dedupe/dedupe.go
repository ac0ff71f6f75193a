// Package dedupe splits an import batch into records that already exist in
// the target store and records that are new, matching on email.
package dedupe

import "strings"

// EmailSet is a set of lower-cased email addresses.
type EmailSet map[string]struct{}

// NewEmailSet builds a set from emails, ignoring blanks.
func NewEmailSet(emails ...string) EmailSet {
	set := make(EmailSet, len(emails))
	for _, e := range emails {
		set.Add(e)
	}
	return set
}

// Add inserts an email into the set.
func (s EmailSet) Add(email string) {
	if key := canonical(email); key != "" {
		s[key] = struct{}{}
	}
}

// Contains reports whether email is in the set, ignoring case.
func (s EmailSet) Contains(email string) bool {
	key := canonical(email)
	if key == "" {
		return false
	}
	_, ok := s[key]
	return ok
}

// Result is a stable partition of a batch.
type Result[T any] struct {
	Duplicates []T
	NewRecords []T
	// RepeatedInBatch lists emails that occur more than once among NewRecords,
	// in order of first repeat. It does not affect the partition.
	RepeatedInBatch []string
}

// Partition splits batch by whether each record's email is in existing.
// Records without an email are always new. Relative order is kept in both
// outputs and the function performs no I/O.
func Partition[T any](batch []T, emailOf func(T) string, existing EmailSet) Result[T] {
	res := Result[T]{
		Duplicates: make([]T, 0),
		NewRecords: make([]T, 0, len(batch)),
	}
	seen := make(map[string]int)

	for _, rec := range batch {
		email := emailOf(rec)
		if existing.Contains(email) {
			res.Duplicates = append(res.Duplicates, rec)
			continue
		}
		res.NewRecords = append(res.NewRecords, rec)

		if key := canonical(email); key != "" {
			seen[key]++
			if seen[key] == 2 {
				res.RepeatedInBatch = append(res.RepeatedInBatch, key)
			}
		}
	}

	return res
}

func canonical(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
