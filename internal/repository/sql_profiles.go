package repository

import (
	"context"
	"errors"

	"jobtracker/internal/models"

	"gorm.io/gorm"
)

type sqlProfileRepository struct {
	sqlBase
}

func (r *sqlProfileRepository) Get(ctx context.Context, userID uint) (profile *models.UserProfile, err error) {
	const op = "profile.get"
	ctx, finish := r.start(ctx, op, "user_profile")
	defer finish(&err)

	var p models.UserProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, classify(op, err)
	}
	return &p, nil
}

// Upsert sets the selected resume, creating the profile row on first use.
// created_date is written once and never changed afterwards.
func (r *sqlProfileRepository) Upsert(ctx context.Context, userID uint, selectedResume string) (profile *models.UserProfile, err error) {
	const op = "profile.upsert"
	ctx, finish := r.start(ctx, op, "user_profile")
	defer finish(&err)

	now := r.opts.now()
	var p models.UserProfile
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ?", userID).Take(&p).Error
		switch {
		case err == nil:
			p.SelectedResume = selectedResume
			p.LastUpdatedDate = now
			return tx.Model(&models.UserProfile{}).
				Where("id = ?", p.ID).
				Updates(map[string]any{"selected_resume": selectedResume, "last_updated_date": now}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			p = models.UserProfile{
				UserID:          userID,
				SelectedResume:  selectedResume,
				CreatedDate:     now,
				LastUpdatedDate: now,
			}
			return tx.Create(&p).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, classify(op, err)
	}
	r.logWrite(ctx, "user_profile", op, 1)
	return &p, nil
}

type sqlCareerGoalRepository struct {
	sqlBase
}

func (r *sqlCareerGoalRepository) ListByUser(ctx context.Context, userID uint) (goals []models.CareerGoal, err error) {
	const op = "career_goals.list"
	ctx, finish := r.start(ctx, op, "career_goals")
	defer finish(&err)

	goals = []models.CareerGoal{}
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("submission_date DESC").Order("id DESC").
		Find(&goals).Error; err != nil {
		return nil, classify(op, err)
	}
	return goals, nil
}

func (r *sqlCareerGoalRepository) Create(ctx context.Context, userID uint, text string) (goal *models.CareerGoal, err error) {
	const op = "career_goals.create"
	ctx, finish := r.start(ctx, op, "career_goals")
	defer finish(&err)

	g := &models.CareerGoal{UserID: userID, Goals: text, SubmissionDate: r.opts.now()}
	if err := r.db.WithContext(ctx).Create(g).Error; err != nil {
		return nil, classify(op, err)
	}
	r.logWrite(ctx, "career_goals", op, 1)
	return g, nil
}

func (r *sqlCareerGoalRepository) Update(ctx context.Context, id, userID uint, text string) (affected int64, err error) {
	const op = "career_goals.update"
	ctx, finish := r.start(ctx, op, "career_goals")
	defer finish(&err)

	res := r.db.WithContext(ctx).Model(&models.CareerGoal{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("goals", text)
	if res.Error != nil {
		return 0, classify(op, res.Error)
	}
	r.logWrite(ctx, "career_goals", op, res.RowsAffected)
	return res.RowsAffected, nil
}

func (r *sqlCareerGoalRepository) Delete(ctx context.Context, id, userID uint) (affected int64, err error) {
	const op = "career_goals.delete"
	ctx, finish := r.start(ctx, op, "career_goals")
	defer finish(&err)

	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.CareerGoal{})
	if res.Error != nil {
		return 0, classify(op, res.Error)
	}
	r.logWrite(ctx, "career_goals", op, res.RowsAffected)
	return res.RowsAffected, nil
}

func (r *sqlCareerGoalRepository) Current(ctx context.Context, userID uint) (goal *models.CareerGoal, err error) {
	const op = "career_goals.current"
	ctx, finish := r.start(ctx, op, "career_goals")
	defer finish(&err)

	var g models.CareerGoal
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("submission_date DESC").Order("id DESC").
		Take(&g).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, classify(op, err)
	}
	return &g, nil
}
