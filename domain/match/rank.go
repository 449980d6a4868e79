package match

import "sort"

// Ranked is an ordered set of records, highest similarity first.
type Ranked struct {
	records []Record
}

// Rank drops ineligible candidates and orders the rest by similarity
// descending. Ties are ordered by URL so the result does not depend on the
// order candidates were produced in.
func Rank(candidates []Candidate) Ranked {
	records := make([]Record, 0, len(candidates))
	for _, c := range candidates {
		if !c.Eligible() {
			continue
		}
		records = append(records, newRecord(c))
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].similarity != records[j].similarity {
			return records[i].similarity > records[j].similarity
		}
		return records[i].url < records[j].url
	})

	return Ranked{records: records}
}

// Records returns a copy of the ranked records.
func (r Ranked) Records() []Record {
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Len returns the number of records.
func (r Ranked) Len() int { return len(r.records) }

// Empty reports whether no candidate survived.
func (r Ranked) Empty() bool { return len(r.records) == 0 }
