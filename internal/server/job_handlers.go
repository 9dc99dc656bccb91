package server

import (
	"jobtracker/internal/models"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) GetJobs(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}

	jobs, err := s.jobs.List(c.UserContext(), userID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(jobs)
}

func (s *Server) GetJob(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	job, err := s.jobs.Get(c.UserContext(), id, userID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(job)
}

func (s *Server) CreateJob(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}
	var in models.JobInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}

	job, err := s.jobs.Create(c.UserContext(), userID, in)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(job)
}

func (s *Server) UpdateJob(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var in models.JobInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}

	if err := s.jobs.Update(c.UserContext(), id, userID, in); err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Job updated successfully"})
}

func (s *Server) DeleteJob(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.jobs.Delete(c.UserContext(), id, userID); err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Job deleted successfully"})
}

// SaveJobs replaces the user's jobs with the edited grid.
func (s *Server) SaveJobs(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}
	var rows []models.JobRow
	if err := parseBody(c, &rows); err != nil {
		return nil
	}

	result, err := s.jobs.SaveGrid(c.UserContext(), userID, rows)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Changes saved successfully",
		"result":  result,
	})
}

func (s *Server) GetStats(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}

	stats, err := s.jobs.Stats(c.UserContext(), userID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(stats)
}

func (s *Server) GetDashboard(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}

	dash, err := s.jobs.Dashboard(c.UserContext(), userID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(dash)
}
