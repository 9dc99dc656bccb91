package service

import (
	"context"
	"strings"

	"jobtracker/internal/models"
	"jobtracker/internal/repository"
)

const maxGoalsLen = 10000

type ProfileService struct {
	profiles repository.ProfileRepository
	goals    repository.CareerGoalRepository
}

func NewProfileService(profiles repository.ProfileRepository, goals repository.CareerGoalRepository) *ProfileService {
	return &ProfileService{profiles: profiles, goals: goals}
}

func (s *ProfileService) Get(ctx context.Context, userID uint) (*models.UserProfile, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, models.NewNotFoundError("Profile", userID)
	}
	return profile, nil
}

func (s *ProfileService) SelectResume(ctx context.Context, userID uint, selectedResume string) (*models.UserProfile, error) {
	selectedResume = strings.TrimSpace(selectedResume)
	if len(selectedResume) > 255 {
		return nil, models.NewValidationError("selected_resume must not exceed 255 characters")
	}
	return s.profiles.Upsert(ctx, userID, selectedResume)
}

func (s *ProfileService) AddGoals(ctx context.Context, userID uint, goals string) (*models.CareerGoal, error) {
	goals = strings.TrimSpace(goals)
	if goals == "" {
		return nil, models.NewValidationError("Please enter your career goals before saving.")
	}
	if len(goals) > maxGoalsLen {
		return nil, models.NewValidationError("Career goals are too long")
	}
	return s.goals.Create(ctx, userID, goals)
}

func (s *ProfileService) GoalsHistory(ctx context.Context, userID uint) ([]models.CareerGoal, error) {
	return s.goals.ListByUser(ctx, userID)
}

func (s *ProfileService) CurrentGoals(ctx context.Context, userID uint) (*models.CareerGoal, error) {
	goal, err := s.goals.Current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if goal == nil {
		return nil, &models.AppError{Code: models.CodeNotFound, Message: "No career goals saved yet"}
	}
	return goal, nil
}
