package repository

import "jobtracker/internal/models"

// newJob builds a job row for insertion. Jobs without a status start as
// Not Applied.
func newJob(userID uint, in models.JobInput, now string) *models.Job {
	j := &models.Job{UserID: userID, DateAdded: now}
	in.Apply(j)
	if j.Status == "" {
		j.Status = models.StatusNotApplied
	}
	return j
}

type jobDiff struct {
	remove []uint
	update []models.JobRow
	insert []models.JobInput
}

// diffJobRows compares the user's current job ids with an edited grid.
// Rows carrying an id the user does not own are ignored.
func diffJobRows(current []uint, rows []models.JobRow) jobDiff {
	owned := make(map[uint]bool, len(current))
	for _, id := range current {
		owned[id] = true
	}

	var diff jobDiff
	keep := make(map[uint]bool, len(rows))
	for _, row := range rows {
		switch {
		case row.ID == 0:
			diff.insert = append(diff.insert, row.JobInput)
		case owned[row.ID]:
			keep[row.ID] = true
			diff.update = append(diff.update, row)
		}
	}
	for _, id := range current {
		if !keep[id] {
			diff.remove = append(diff.remove, id)
		}
	}
	return diff
}

// tallyStats aggregates fetched (status, date_added) pairs the same way the
// SQL store's GROUP BY does.
func tallyStats(rows []statusDate, cutoff string) *models.UserStats {
	stats := &models.UserStats{StatusCounts: map[string]int{}}
	for _, row := range rows {
		stats.TotalApplications++
		stats.StatusCounts[row.Status]++
		if row.DateAdded >= cutoff {
			stats.RecentApplications++
		}
	}
	return stats
}

type statusDate struct {
	Status    string `json:"status"`
	DateAdded string `json:"date_added"`
}
