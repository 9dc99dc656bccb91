package repository

import (
	"fmt"

	"jobtracker/internal/models"
	"jobtracker/internal/observability"
)

const msgTooManyPreferred = "Only one document can be set as preferred resume per user"

// maxPreferenceRetries bounds how often a batch that lost a race on the
// preferred-row unique index is replayed.
const maxPreferenceRetries = 2

// preferencePlan is a validated preferred-resume batch.
type preferencePlan struct {
	// target is the document to mark preferred, 0 when the batch selects none.
	target uint
	// apply holds the batch rows owned by the acting user, in batch order.
	apply []models.DocumentPreference
}

func countPreferred(batch []models.DocumentPreference) int {
	n := 0
	for _, row := range batch {
		if row.Preferred {
			n++
		}
	}
	return n
}

// checkPreferredCount rejects a batch with more than one preferred row.
func checkPreferredCount(batch []models.DocumentPreference) error {
	if countPreferred(batch) > 1 {
		observability.PreferenceBatches.WithLabelValues("rejected").Inc()
		return models.NewInvariantError(msgTooManyPreferred)
	}
	return nil
}

func batchIDs(batch []models.DocumentPreference) []uint {
	seen := make(map[uint]bool, len(batch))
	ids := make([]uint, 0, len(batch))
	for _, row := range batch {
		if !seen[row.ID] {
			seen[row.ID] = true
			ids = append(ids, row.ID)
		}
	}
	return ids
}

// planPreferences drops rows the user does not own and checks that the
// preferred row, if any, is a resume. owned maps document id to type.
func planPreferences(batch []models.DocumentPreference, owned map[uint]string) (preferencePlan, error) {
	var plan preferencePlan
	for _, row := range batch {
		docType, ok := owned[row.ID]
		if !ok {
			continue
		}
		if row.Preferred {
			if docType != models.DocumentTypeResume {
				observability.PreferenceBatches.WithLabelValues("rejected").Inc()
				return preferencePlan{}, models.NewValidationError(
					fmt.Sprintf("Document %d is of type %q; only resumes can be preferred", row.ID, docType))
			}
			plan.target = row.ID
		}
		plan.apply = append(plan.apply, row)
	}
	return plan, nil
}
