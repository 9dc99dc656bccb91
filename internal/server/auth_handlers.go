package server

import (
	"jobtracker/internal/cache"
	"jobtracker/internal/middleware"
	"jobtracker/internal/models"
	"jobtracker/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Register creates an account and returns a token for it.
func (s *Server) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.auth.Register(c.UserContext(), req)
	if err != nil {
		return respond(c, err)
	}

	token, err := middleware.IssueToken(s.config.JWTSecret, user.ID, user.Username, middleware.DefaultTokenTTL)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Registration successful",
		"token":   token,
		"user":    user,
	})
}

// Login verifies credentials and issues a token.
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	res, err := s.auth.Verify(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respond(c, err)
	}

	switch res.Status {
	case service.VerifyUsernameNotFound:
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Username not found. Please register first."))
	case service.VerifyWrongPassword:
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Incorrect password."))
	}

	token, err := middleware.IssueToken(s.config.JWTSecret, res.User.ID, res.User.Username, middleware.DefaultTokenTTL)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  res.User,
	})
}

// ChangePassword rehashes the password after checking the current one.
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	if err := s.auth.ChangePassword(c.UserContext(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password updated successfully"})
}

// DeleteAccount removes the user and every row it owns, then the user's
// files. Files stay on disk when the delete fails.
func (s *Server) DeleteAccount(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}
	ctx := c.UserContext()

	paths, err := s.documents.FilePaths(ctx, userID)
	if err != nil {
		return respond(c, err)
	}

	if err := s.auth.DeleteAccount(ctx, userID); err != nil {
		return respond(c, err)
	}
	s.documents.RemovePaths(ctx, paths)
	cache.InvalidateUser(ctx, userID)

	return c.JSON(fiber.Map{"message": "Account deleted"})
}

// GetMe returns the authenticated user's account.
func (s *Server) GetMe(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}
	user, err := s.auth.GetUser(c.UserContext(), userID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(user)
}
