package repository

import (
	"context"
	"errors"

	"jobtracker/internal/models"

	"gorm.io/gorm"
)

type sqlJobRepository struct {
	sqlBase
}

func (r *sqlJobRepository) ListByUser(ctx context.Context, userID uint) (jobs []models.Job, err error) {
	const op = "jobs.list"
	ctx, finish := r.start(ctx, op, "jobs")
	defer finish(&err)

	jobs = []models.Job{}
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date_added DESC").Order("id DESC").
		Find(&jobs).Error; err != nil {
		return nil, classify(op, err)
	}
	return jobs, nil
}

func (r *sqlJobRepository) GetByID(ctx context.Context, id, userID uint) (job *models.Job, err error) {
	const op = "jobs.get"
	ctx, finish := r.start(ctx, op, "jobs")
	defer finish(&err)

	var j models.Job
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Take(&j).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, classify(op, err)
	}
	return &j, nil
}

func (r *sqlJobRepository) Create(ctx context.Context, userID uint, in models.JobInput) (job *models.Job, err error) {
	const op = "jobs.create"
	ctx, finish := r.start(ctx, op, "jobs")
	defer finish(&err)

	j := newJob(userID, in, r.opts.now())
	if err := r.db.WithContext(ctx).Create(j).Error; err != nil {
		return nil, classify(op, err)
	}
	r.logWrite(ctx, "jobs", op, 1)
	return j, nil
}

func (r *sqlJobRepository) Update(ctx context.Context, id, userID uint, in models.JobInput) (affected int64, err error) {
	const op = "jobs.update"
	ctx, finish := r.start(ctx, op, "jobs")
	defer finish(&err)

	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(in.Columns())
	if res.Error != nil {
		return 0, classify(op, res.Error)
	}
	r.logWrite(ctx, "jobs", op, res.RowsAffected)
	return res.RowsAffected, nil
}

func (r *sqlJobRepository) Delete(ctx context.Context, id, userID uint) (affected int64, err error) {
	const op = "jobs.delete"
	ctx, finish := r.start(ctx, op, "jobs")
	defer finish(&err)

	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Job{})
	if res.Error != nil {
		return 0, classify(op, res.Error)
	}
	r.logWrite(ctx, "jobs", op, res.RowsAffected)
	return res.RowsAffected, nil
}

func (r *sqlJobRepository) ReplaceAll(ctx context.Context, userID uint, rows []models.JobRow) (result models.ReplaceResult, err error) {
	const op = "jobs.replace_all"
	ctx, finish := r.start(ctx, op, "jobs")
	defer finish(&err)

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current []uint
		if err := tx.Model(&models.Job{}).Where("user_id = ?", userID).Pluck("id", &current).Error; err != nil {
			return err
		}

		diff := diffJobRows(current, rows)
		if len(diff.remove) > 0 {
			res := tx.Where("user_id = ? AND id IN ?", userID, diff.remove).Delete(&models.Job{})
			if res.Error != nil {
				return res.Error
			}
			result.Deleted = int(res.RowsAffected)
		}

		for _, row := range diff.update {
			res := tx.Model(&models.Job{}).
				Where("id = ? AND user_id = ?", row.ID, userID).
				Updates(row.Columns())
			if res.Error != nil {
				return res.Error
			}
			result.Updated += int(res.RowsAffected)
		}

		for _, in := range diff.insert {
			if err := tx.Create(newJob(userID, in, r.opts.now())).Error; err != nil {
				return err
			}
			result.Inserted++
		}
		return nil
	})
	if err != nil {
		return models.ReplaceResult{}, classify(op, err)
	}
	r.logWrite(ctx, "jobs", op, int64(result.Inserted+result.Updated+result.Deleted))
	return result, nil
}

type statusRow struct {
	Status string
	Total  int
	Recent int
}

func (r *sqlJobRepository) Stats(ctx context.Context, userID uint) (stats *models.UserStats, err error) {
	const op = "jobs.stats"
	ctx, finish := r.start(ctx, op, "jobs")
	defer finish(&err)

	var rows []statusRow
	if err := r.db.WithContext(ctx).Model(&models.Job{}).
		Select("COALESCE(status, '') AS status, COUNT(*) AS total, "+
			"SUM(CASE WHEN date_added >= ? THEN 1 ELSE 0 END) AS recent", r.opts.recentCutoff()).
		Where("user_id = ?", userID).
		Group("COALESCE(status, '')").
		Scan(&rows).Error; err != nil {
		return nil, classify(op, err)
	}

	stats = &models.UserStats{StatusCounts: map[string]int{}}
	for _, row := range rows {
		stats.TotalApplications += row.Total
		stats.StatusCounts[row.Status] = row.Total
		stats.RecentApplications += row.Recent
	}
	return stats, nil
}
