package recomb

import (
	gniterrors "github.com/gabrielecerami/gitnetics/internal/errors"
)

// OrderedRecombination pairs a topic (the key the engine keeps the ordered
// list under) with its recombination, for slicing.
type OrderedRecombination struct {
	Topic         string
	Recombination *Recombination
}

// BuildSlices walks an ordered recombination list and groups consecutive
// runs of equal status into segments, one list per status. It is a direct
// port of project.py's get_slices/status_impact: at every step the current
// status's impact must not exceed the previous status's impact, since a
// later record outranking an earlier one along upstream history means
// midstream is broken.
func BuildSlices(branch string, ordered []OrderedRecombination) (Slices, error) {
	slices := Slices{
		StatusMerged:   nil,
		StatusApproved: nil,
		StatusPresent:  nil,
		StatusMissing:  nil,
	}

	var (
		haveCurrent    bool
		currentStatus  ChangeStatus
		currentStart   int
		havePrevious   bool
		previousStatus ChangeStatus
		previousImpact int
		previousIndex  int
	)

	flush := func(end int) {
		if haveCurrent {
			slices[currentStatus] = append(slices[currentStatus], Segment{Start: currentStart, End: end})
		}
	}

	for index, item := range ordered {
		status := item.Recombination.Status
		impact, known := StatusImpact[status]
		if !known {
			// PRESENT/MISSING/APPROVED/MERGED are the only statuses with a
			// defined impact; anything else (UNKNOWN, ABANDONED) cannot
			// appear in a scan's ordered list and is treated as impact 0.
			impact = 0
		}

		if havePrevious {
			if impact > previousImpact {
				return nil, gniterrors.NewConstraintViolationError(branch, index, string(status), previousIndex, string(previousStatus))
			}
		}

		if !haveCurrent || status != currentStatus {
			flush(index)
			haveCurrent = true
			currentStatus = status
			currentStart = index
		}

		havePrevious = true
		previousStatus = status
		previousImpact = impact
		previousIndex = index
	}
	flush(len(ordered))

	return slices, nil
}
