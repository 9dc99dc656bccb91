package repository

import (
	"context"

	"jobtracker/internal/models"
)

type restProfileRepository struct {
	restBase
}

func (r *restProfileRepository) Get(ctx context.Context, userID uint) (profile *models.UserProfile, err error) {
	const op = "profile.get"
	ctx, finish := r.start(ctx, op, "user_profile")
	defer finish(&err)

	rows, err := fetch[models.UserProfile](ctx, r.from("user_profile").Select("*", "", false).
		Eq("user_id", idString(userID)).Limit(1, ""))
	if err != nil {
		return nil, classify(op, err)
	}
	return first(rows), nil
}

// Upsert updates the existing row or inserts one. When a concurrent insert
// wins the unique user_id race the update is retried once.
func (r *restProfileRepository) Upsert(ctx context.Context, userID uint, selectedResume string) (profile *models.UserProfile, err error) {
	const op = "profile.upsert"
	ctx, finish := r.start(ctx, op, "user_profile")
	defer finish(&err)

	now := r.opts.now()
	owner := idString(userID)
	update := func() (*models.UserProfile, error) {
		rows, err := fetch[models.UserProfile](ctx, r.from("user_profile").
			Update(map[string]any{"selected_resume": selectedResume, "last_updated_date": now}, "representation", "").
			Eq("user_id", owner))
		if err != nil {
			return nil, err
		}
		return first(rows), nil
	}

	profile, err = update()
	if err != nil {
		return nil, classify(op, err)
	}
	if profile == nil {
		values := map[string]any{
			"user_id":           userID,
			"selected_resume":   selectedResume,
			"created_date":      now,
			"last_updated_date": now,
		}
		rows, err := fetch[models.UserProfile](ctx, r.from("user_profile").Insert(values, false, "", "representation", ""))
		switch {
		case err == nil:
			profile = first(rows)
		case models.IsCode(classify(op, err), models.CodeConflict):
			profile, err = update()
			if err != nil {
				return nil, classify(op, err)
			}
		default:
			return nil, classify(op, err)
		}
	}
	if profile == nil {
		return nil, models.NewNotFoundError("Profile", userID).WithOp(op)
	}
	r.logWrite(ctx, "user_profile", op, 1)
	return profile, nil
}

type restCareerGoalRepository struct {
	restBase
}

func (r *restCareerGoalRepository) ListByUser(ctx context.Context, userID uint) (goals []models.CareerGoal, err error) {
	const op = "career_goals.list"
	ctx, finish := r.start(ctx, op, "career_goals")
	defer finish(&err)

	goals, err = fetch[models.CareerGoal](ctx, r.from("career_goals").Select("*", "", false).
		Eq("user_id", idString(userID)).
		Order("submission_date", newestFirst).Order("id", newestFirst))
	if err != nil {
		return nil, classify(op, err)
	}
	return goals, nil
}

func (r *restCareerGoalRepository) Create(ctx context.Context, userID uint, text string) (goal *models.CareerGoal, err error) {
	const op = "career_goals.create"
	ctx, finish := r.start(ctx, op, "career_goals")
	defer finish(&err)

	g := &models.CareerGoal{UserID: userID, Goals: text, SubmissionDate: r.opts.now()}
	values := map[string]any{"user_id": userID, "goals": text, "submission_date": g.SubmissionDate}
	rows, err := fetch[models.CareerGoal](ctx, r.from("career_goals").Insert(values, false, "", "representation", ""))
	if err != nil {
		return nil, classify(op, err)
	}
	if row := first(rows); row != nil {
		g = row
	}
	r.logWrite(ctx, "career_goals", op, 1)
	return g, nil
}

func (r *restCareerGoalRepository) Update(ctx context.Context, id, userID uint, text string) (affected int64, err error) {
	const op = "career_goals.update"
	ctx, finish := r.start(ctx, op, "career_goals")
	defer finish(&err)

	rows, err := fetch[idRow](ctx, r.from("career_goals").
		Update(map[string]any{"goals": text}, "representation", "").
		Eq("id", idString(id)).Eq("user_id", idString(userID)))
	if err != nil {
		return 0, classify(op, err)
	}
	r.logWrite(ctx, "career_goals", op, int64(len(rows)))
	return int64(len(rows)), nil
}

func (r *restCareerGoalRepository) Delete(ctx context.Context, id, userID uint) (affected int64, err error) {
	const op = "career_goals.delete"
	ctx, finish := r.start(ctx, op, "career_goals")
	defer finish(&err)

	rows, err := fetch[idRow](ctx, r.from("career_goals").Delete("representation", "").
		Eq("id", idString(id)).Eq("user_id", idString(userID)))
	if err != nil {
		return 0, classify(op, err)
	}
	r.logWrite(ctx, "career_goals", op, int64(len(rows)))
	return int64(len(rows)), nil
}

func (r *restCareerGoalRepository) Current(ctx context.Context, userID uint) (goal *models.CareerGoal, err error) {
	const op = "career_goals.current"
	ctx, finish := r.start(ctx, op, "career_goals")
	defer finish(&err)

	rows, err := fetch[models.CareerGoal](ctx, r.from("career_goals").Select("*", "", false).
		Eq("user_id", idString(userID)).
		Order("submission_date", newestFirst).Order("id", newestFirst).
		Limit(1, ""))
	if err != nil {
		return nil, classify(op, err)
	}
	return first(rows), nil
}
