package server

import (
	"github.com/gofiber/fiber/v2"
)

func (s *Server) GetProfile(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}

	profile, err := s.profiles.Get(c.UserContext(), userID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(profile)
}

func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}
	var req struct {
		SelectedResume string `json:"selected_resume"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	profile, err := s.profiles.SelectResume(c.UserContext(), userID, req.SelectedResume)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(profile)
}

func (s *Server) GetCareerGoals(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}

	goals, err := s.profiles.GoalsHistory(c.UserContext(), userID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(goals)
}

func (s *Server) AddCareerGoals(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}
	var req struct {
		Goals string `json:"goals"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	goal, err := s.profiles.AddGoals(c.UserContext(), userID, req.Goals)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(goal)
}

func (s *Server) GetCurrentCareerGoals(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}

	goal, err := s.profiles.CurrentGoals(c.UserContext(), userID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(goal)
}
