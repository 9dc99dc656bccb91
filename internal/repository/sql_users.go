package repository

import (
	"context"
	"errors"

	"jobtracker/internal/models"

	"gorm.io/gorm"
)

type sqlUserRepository struct {
	sqlBase
}

func (r *sqlUserRepository) Create(ctx context.Context, user *models.User) (err error) {
	const op = "users.create"
	ctx, finish := r.start(ctx, op, "users")
	defer finish(&err)

	user.ID = 0
	user.CreatedAt = r.opts.now()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return classify(op, err)
	}
	r.logWrite(ctx, "users", op, 1)
	return nil
}

func (r *sqlUserRepository) GetByID(ctx context.Context, id uint) (user *models.User, err error) {
	const op = "users.get"
	ctx, finish := r.start(ctx, op, "users")
	defer finish(&err)

	var u models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id).WithOp(op)
		}
		return nil, classify(op, err)
	}
	return &u, nil
}

func (r *sqlUserRepository) GetByUsername(ctx context.Context, username string) (user *models.User, err error) {
	const op = "users.get_by_username"
	ctx, finish := r.start(ctx, op, "users")
	defer finish(&err)

	var u models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).Take(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, classify(op, err)
	}
	return &u, nil
}

func (r *sqlUserRepository) EmailExists(ctx context.Context, email string) (exists bool, err error) {
	const op = "users.email_exists"
	ctx, finish := r.start(ctx, op, "users")
	defer finish(&err)

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, classify(op, err)
	}
	return count > 0, nil
}

func (r *sqlUserRepository) UpdatePasswordHash(ctx context.Context, id uint, hash string) (affected int64, err error) {
	const op = "users.update_password"
	ctx, finish := r.start(ctx, op, "users")
	defer finish(&err)

	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return 0, classify(op, res.Error)
	}
	r.logWrite(ctx, "users", op, res.RowsAffected)
	return res.RowsAffected, nil
}

// Delete removes owned rows explicitly before the user so databases created
// without foreign keys are cleaned up too.
func (r *sqlUserRepository) Delete(ctx context.Context, id uint) (affected int64, err error) {
	const op = "users.delete"
	ctx, finish := r.start(ctx, op, "users")
	defer finish(&err)

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, owned := range []any{&models.CareerGoal{}, &models.UserProfile{}, &models.Document{}, &models.Job{}} {
			if err := tx.Where("user_id = ?", id).Delete(owned).Error; err != nil {
				return err
			}
		}
		res := tx.Where("id = ?", id).Delete(&models.User{})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, classify(op, err)
	}
	r.logWrite(ctx, "users", op, affected)
	return affected, nil
}
