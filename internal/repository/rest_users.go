package repository

import (
	"context"

	"jobtracker/internal/models"
)

type restUserRepository struct {
	restBase
}

// userRow mirrors the users table; models.User hides the hash from JSON.
type userRow struct {
	ID           uint    `json:"id"`
	Username     string  `json:"username"`
	PasswordHash string  `json:"password_hash"`
	Email        *string `json:"email"`
	CreatedAt    string  `json:"created_at"`
}

func (r userRow) user() *models.User {
	return &models.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Email:        r.Email,
		CreatedAt:    r.CreatedAt,
	}
}

func (r *restUserRepository) Create(ctx context.Context, user *models.User) (err error) {
	const op = "users.create"
	ctx, finish := r.start(ctx, op, "users")
	defer finish(&err)

	user.CreatedAt = r.opts.now()
	values := map[string]any{
		"username":      user.Username,
		"password_hash": user.PasswordHash,
		"email":         user.Email,
		"created_at":    user.CreatedAt,
	}
	rows, err := fetch[userRow](ctx, r.from("users").Insert(values, false, "", "representation", ""))
	if err != nil {
		return classify(op, err)
	}
	if row := first(rows); row != nil {
		user.ID = row.ID
	}
	r.logWrite(ctx, "users", op, 1)
	return nil
}

func (r *restUserRepository) GetByID(ctx context.Context, id uint) (user *models.User, err error) {
	const op = "users.get"
	ctx, finish := r.start(ctx, op, "users")
	defer finish(&err)

	rows, err := fetch[userRow](ctx, r.from("users").Select("*", "", false).Eq("id", idString(id)).Limit(1, ""))
	if err != nil {
		return nil, classify(op, err)
	}
	row := first(rows)
	if row == nil {
		return nil, models.NewNotFoundError("User", id).WithOp(op)
	}
	return row.user(), nil
}

func (r *restUserRepository) GetByUsername(ctx context.Context, username string) (user *models.User, err error) {
	const op = "users.get_by_username"
	ctx, finish := r.start(ctx, op, "users")
	defer finish(&err)

	rows, err := fetch[userRow](ctx, r.from("users").Select("*", "", false).Eq("username", username).Limit(1, ""))
	if err != nil {
		return nil, classify(op, err)
	}
	if row := first(rows); row != nil {
		return row.user(), nil
	}
	return nil, nil
}

func (r *restUserRepository) EmailExists(ctx context.Context, email string) (exists bool, err error) {
	const op = "users.email_exists"
	ctx, finish := r.start(ctx, op, "users")
	defer finish(&err)

	rows, err := fetch[idRow](ctx, r.from("users").Select("id", "", false).Eq("email", email).Limit(1, ""))
	if err != nil {
		return false, classify(op, err)
	}
	return len(rows) > 0, nil
}

func (r *restUserRepository) UpdatePasswordHash(ctx context.Context, id uint, hash string) (affected int64, err error) {
	const op = "users.update_password"
	ctx, finish := r.start(ctx, op, "users")
	defer finish(&err)

	rows, err := fetch[idRow](ctx, r.from("users").
		Update(map[string]any{"password_hash": hash}, "representation", "").
		Eq("id", idString(id)))
	if err != nil {
		return 0, classify(op, err)
	}
	r.logWrite(ctx, "users", op, int64(len(rows)))
	return int64(len(rows)), nil
}

// Delete removes owned rows first so a project created without cascading
// foreign keys does not keep orphans.
func (r *restUserRepository) Delete(ctx context.Context, id uint) (affected int64, err error) {
	const op = "users.delete"
	ctx, finish := r.start(ctx, op, "users")
	defer finish(&err)

	for _, table := range []string{"career_goals", "user_profile", "documents", "jobs"} {
		if _, err := fetch[idRow](ctx, r.from(table).Delete("representation", "").Eq("user_id", idString(id))); err != nil {
			return 0, classify(op, err)
		}
	}
	rows, err := fetch[idRow](ctx, r.from("users").Delete("representation", "").Eq("id", idString(id)))
	if err != nil {
		return 0, classify(op, err)
	}
	r.logWrite(ctx, "users", op, int64(len(rows)))
	return int64(len(rows)), nil
}
