package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"jobtracker/internal/models"
	"jobtracker/internal/observability"
	"jobtracker/internal/repository"
	"jobtracker/internal/storage"
	"jobtracker/internal/validation"
)

type DocumentService struct {
	docs  repository.DocumentRepository
	files *storage.Local
}

type UploadInput struct {
	Name     string
	Type     string
	Filename string
	Body     io.Reader
}

// DocumentContent is the readable text of a document and where it came from.
type DocumentContent struct {
	DocumentID uint   `json:"document_id"`
	Name       string `json:"document_name"`
	Source     string `json:"source"`
	Content    string `json:"content"`
}

const (
	ContentFromFile   = "file"
	ContentFromInline = "inline"
)

func NewDocumentService(docs repository.DocumentRepository, files *storage.Local) *DocumentService {
	return &DocumentService{docs: docs, files: files}
}

func (s *DocumentService) List(ctx context.Context, userID uint, docType string) ([]models.Document, error) {
	if docType == "" {
		return s.docs.ListByUser(ctx, userID)
	}
	if !models.Contains(models.DocumentTypes, docType) {
		return nil, models.NewValidationError("Document type must be one of: " + strings.Join(models.DocumentTypes, ", "))
	}
	return s.docs.ListByType(ctx, userID, docType)
}

func (s *DocumentService) Get(ctx context.Context, id, userID uint) (*models.Document, error) {
	doc, err := s.docs.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, models.NewNotFoundError("Document", id)
	}
	return doc, nil
}

// Upload stores the file, extracts its text when the type allows, and
// records the document. The file is removed again if the insert fails.
func (s *DocumentService) Upload(ctx context.Context, userID uint, in UploadInput) (*models.Document, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(in.Filename), filepath.Ext(in.Filename))
	}
	record := models.DocumentInput{DocumentName: name, DocumentType: in.Type}
	if err := validation.Struct(record); err != nil {
		return nil, err
	}
	if in.Filename == "" {
		return nil, models.NewValidationError("A file is required")
	}

	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, models.NewValidationError("Could not read uploaded file")
	}

	path, err := s.files.Save(name, in.Filename, bytes.NewReader(data))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	record.FilePath = path

	text, err := storage.ExtractText(in.Filename, data)
	switch {
	case err == nil:
		record.DocumentContent = text
	case errors.Is(err, storage.ErrUnsupported):
	default:
		observability.Logger.WarnContext(ctx, "Text extraction failed",
			slog.String("file", in.Filename), slog.String("error", err.Error()))
	}

	doc, err := s.docs.Create(ctx, userID, record)
	if err != nil {
		_ = s.files.Remove(path)
		return nil, err
	}
	return doc, nil
}

// Delete removes the row first and then the file. A missing file is
// ignored.
func (s *DocumentService) Delete(ctx context.Context, id, userID uint) error {
	doc, err := s.Get(ctx, id, userID)
	if err != nil {
		return err
	}
	n, err := s.docs.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return models.NewNotFoundError("Document", id)
	}
	if err := s.files.Remove(doc.FilePath); err != nil {
		observability.Logger.WarnContext(ctx, "Failed to remove document file",
			slog.String("path", doc.FilePath), slog.String("error", err.Error()))
	}
	return nil
}

// FilePaths lists the stored file paths of the user's documents. Account
// deletion collects them before the rows are gone.
func (s *DocumentService) FilePaths(ctx context.Context, userID uint) ([]string, error) {
	docs, err := s.docs.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.FilePath != "" {
			paths = append(paths, doc.FilePath)
		}
	}
	return paths, nil
}

// RemovePaths deletes stored files, logging failures instead of returning
// them. The owning rows must already be gone.
func (s *DocumentService) RemovePaths(ctx context.Context, paths []string) {
	for _, path := range paths {
		if err := s.files.Remove(path); err != nil {
			observability.Logger.WarnContext(ctx, "Failed to remove document file",
				slog.String("path", path), slog.String("error", err.Error()))
		}
	}
}

func (s *DocumentService) SavePreferences(ctx context.Context, userID uint, batch []models.DocumentPreference) (int, error) {
	for _, row := range batch {
		if err := validation.Struct(row); err != nil {
			return 0, err
		}
	}
	return s.docs.SavePreferences(ctx, userID, batch)
}

func (s *DocumentService) PreferredResume(ctx context.Context, userID uint) (*models.Document, error) {
	doc, err := s.docs.GetPreferredResume(ctx, userID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, &models.AppError{Code: models.CodeNotFound, Message: "No preferred resume selected"}
	}
	return doc, nil
}

// Content reads the stored file. When the file is gone or its type cannot
// be read, the inline content saved at upload time is returned instead.
func (s *DocumentService) Content(ctx context.Context, id, userID uint) (*DocumentContent, error) {
	doc, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	out := &DocumentContent{DocumentID: doc.ID, Name: doc.DocumentName}

	data, err := s.files.Read(doc.FilePath)
	if err == nil {
		if text, err := storage.ExtractText(doc.FilePath, data); err == nil {
			out.Source, out.Content = ContentFromFile, text
			return out, nil
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		observability.Logger.WarnContext(ctx, "Failed to read document file",
			slog.String("path", doc.FilePath), slog.String("error", err.Error()))
	}

	if doc.DocumentContent != "" {
		out.Source, out.Content = ContentFromInline, doc.DocumentContent
		return out, nil
	}
	return nil, &models.AppError{Code: models.CodeNotFound, Message: "Document content is not available"}
}
