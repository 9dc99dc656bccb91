package server

import (
	"jobtracker/internal/models"
	"jobtracker/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetDocuments lists the user's documents, optionally filtered by ?type=.
func (s *Server) GetDocuments(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}

	docs, err := s.documents.List(c.UserContext(), userID, c.Query("type"))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(docs)
}

// UploadDocument accepts a multipart form with "file", "document_name" and
// "document_type".
func (s *Server) UploadDocument(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("A file is required"))
	}
	f, err := fh.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Could not read uploaded file"))
	}
	defer func() { _ = f.Close() }()

	doc, err := s.documents.Upload(c.UserContext(), userID, service.UploadInput{
		Name:     c.FormValue("document_name"),
		Type:     c.FormValue("document_type"),
		Filename: fh.Filename,
		Body:     f,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

// SaveDocumentPreferences applies a preferred-resume batch.
func (s *Server) SaveDocumentPreferences(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}
	var batch []models.DocumentPreference
	if err := parseBody(c, &batch); err != nil {
		return nil
	}

	n, err := s.documents.SavePreferences(c.UserContext(), userID, batch)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Preferences saved successfully",
		"updated": n,
	})
}

func (s *Server) GetPreferredResume(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}

	doc, err := s.documents.PreferredResume(c.UserContext(), userID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(doc)
}

func (s *Server) GetDocumentContent(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	content, err := s.documents.Content(c.UserContext(), id, userID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(content)
}

func (s *Server) DeleteDocument(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.documents.Delete(c.UserContext(), id, userID); err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Document deleted successfully"})
}
