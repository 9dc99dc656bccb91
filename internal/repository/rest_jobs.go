package repository

import (
	"context"

	"jobtracker/internal/models"
)

type restJobRepository struct {
	restBase
}

func jobValues(j *models.Job) map[string]any {
	values := models.JobInput{
		CompanyName:    j.CompanyName,
		JobTitle:       j.JobTitle,
		JobDescription: j.JobDescription,
		ApplicationURL: j.ApplicationURL,
		Status:         j.Status,
		Sentiment:      j.Sentiment,
		Notes:          j.Notes,
		Location:       j.Location,
		Salary:         j.Salary,
		AppliedDate:    j.AppliedDate,
	}.Columns()
	values["user_id"] = j.UserID
	values["date_added"] = j.DateAdded
	return values
}

func (r *restJobRepository) ListByUser(ctx context.Context, userID uint) (jobs []models.Job, err error) {
	const op = "jobs.list"
	ctx, finish := r.start(ctx, op, "jobs")
	defer finish(&err)

	jobs, err = fetch[models.Job](ctx, r.from("jobs").Select("*", "", false).
		Eq("user_id", idString(userID)).
		Order("date_added", newestFirst).Order("id", newestFirst))
	if err != nil {
		return nil, classify(op, err)
	}
	return jobs, nil
}

func (r *restJobRepository) GetByID(ctx context.Context, id, userID uint) (job *models.Job, err error) {
	const op = "jobs.get"
	ctx, finish := r.start(ctx, op, "jobs")
	defer finish(&err)

	rows, err := fetch[models.Job](ctx, r.from("jobs").Select("*", "", false).
		Eq("id", idString(id)).Eq("user_id", idString(userID)).Limit(1, ""))
	if err != nil {
		return nil, classify(op, err)
	}
	return first(rows), nil
}

func (r *restJobRepository) Create(ctx context.Context, userID uint, in models.JobInput) (job *models.Job, err error) {
	const op = "jobs.create"
	ctx, finish := r.start(ctx, op, "jobs")
	defer finish(&err)

	j := newJob(userID, in, r.opts.now())
	rows, err := fetch[models.Job](ctx, r.from("jobs").Insert(jobValues(j), false, "", "representation", ""))
	if err != nil {
		return nil, classify(op, err)
	}
	if row := first(rows); row != nil {
		j = row
	}
	r.logWrite(ctx, "jobs", op, 1)
	return j, nil
}

func (r *restJobRepository) Update(ctx context.Context, id, userID uint, in models.JobInput) (affected int64, err error) {
	const op = "jobs.update"
	ctx, finish := r.start(ctx, op, "jobs")
	defer finish(&err)

	rows, err := fetch[idRow](ctx, r.from("jobs").Update(in.Columns(), "representation", "").
		Eq("id", idString(id)).Eq("user_id", idString(userID)))
	if err != nil {
		return 0, classify(op, err)
	}
	r.logWrite(ctx, "jobs", op, int64(len(rows)))
	return int64(len(rows)), nil
}

func (r *restJobRepository) Delete(ctx context.Context, id, userID uint) (affected int64, err error) {
	const op = "jobs.delete"
	ctx, finish := r.start(ctx, op, "jobs")
	defer finish(&err)

	rows, err := fetch[idRow](ctx, r.from("jobs").Delete("representation", "").
		Eq("id", idString(id)).Eq("user_id", idString(userID)))
	if err != nil {
		return 0, classify(op, err)
	}
	r.logWrite(ctx, "jobs", op, int64(len(rows)))
	return int64(len(rows)), nil
}

// ReplaceAll is not atomic over REST: a failure part way leaves the earlier
// steps applied. Deletes run first, then updates, then one bulk insert.
func (r *restJobRepository) ReplaceAll(ctx context.Context, userID uint, rows []models.JobRow) (result models.ReplaceResult, err error) {
	const op = "jobs.replace_all"
	ctx, finish := r.start(ctx, op, "jobs")
	defer finish(&err)

	owner := idString(userID)
	current, err := fetch[idRow](ctx, r.from("jobs").Select("id", "", false).Eq("user_id", owner))
	if err != nil {
		return result, classify(op, err)
	}
	ids := make([]uint, len(current))
	for i, row := range current {
		ids[i] = row.ID
	}

	diff := diffJobRows(ids, rows)
	if len(diff.remove) > 0 {
		deleted, err := fetch[idRow](ctx, r.from("jobs").Delete("representation", "").
			Eq("user_id", owner).In("id", idStrings(diff.remove)))
		if err != nil {
			return result, classify(op, err)
		}
		result.Deleted = len(deleted)
	}

	for _, row := range diff.update {
		updated, err := fetch[idRow](ctx, r.from("jobs").Update(row.Columns(), "representation", "").
			Eq("id", idString(row.ID)).Eq("user_id", owner))
		if err != nil {
			return result, classify(op, err)
		}
		result.Updated += len(updated)
	}

	if len(diff.insert) > 0 {
		now := r.opts.now()
		values := make([]map[string]any, len(diff.insert))
		for i, in := range diff.insert {
			values[i] = jobValues(newJob(userID, in, now))
		}
		inserted, err := fetch[idRow](ctx, r.from("jobs").Insert(values, false, "", "representation", ""))
		if err != nil {
			return result, classify(op, err)
		}
		result.Inserted = len(inserted)
	}

	r.logWrite(ctx, "jobs", op, int64(result.Inserted+result.Updated+result.Deleted))
	return result, nil
}

// Stats fetches status and date_added for every job and tallies locally.
func (r *restJobRepository) Stats(ctx context.Context, userID uint) (stats *models.UserStats, err error) {
	const op = "jobs.stats"
	ctx, finish := r.start(ctx, op, "jobs")
	defer finish(&err)

	rows, err := fetch[statusDate](ctx, r.from("jobs").Select("status,date_added", "", false).
		Eq("user_id", idString(userID)))
	if err != nil {
		return nil, classify(op, err)
	}
	return tallyStats(rows, r.opts.recentCutoff()), nil
}
