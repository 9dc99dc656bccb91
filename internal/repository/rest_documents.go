package repository

import (
	"context"

	"jobtracker/internal/models"
	"jobtracker/internal/observability"
)

type restDocumentRepository struct {
	restBase
}

func (r *restDocumentRepository) ListByUser(ctx context.Context, userID uint) (docs []models.Document, err error) {
	const op = "documents.list"
	ctx, finish := r.start(ctx, op, "documents")
	defer finish(&err)

	docs, err = fetch[models.Document](ctx, r.from("documents").Select("*", "", false).
		Eq("user_id", idString(userID)).
		Order("upload_date", newestFirst).Order("id", newestFirst))
	if err != nil {
		return nil, classify(op, err)
	}
	return docs, nil
}

func (r *restDocumentRepository) ListByType(ctx context.Context, userID uint, docType string) (docs []models.Document, err error) {
	const op = "documents.list_by_type"
	ctx, finish := r.start(ctx, op, "documents")
	defer finish(&err)

	docs, err = fetch[models.Document](ctx, r.from("documents").Select("*", "", false).
		Eq("user_id", idString(userID)).Eq("document_type", docType).
		Order("upload_date", newestFirst).Order("id", newestFirst))
	if err != nil {
		return nil, classify(op, err)
	}
	return docs, nil
}

func (r *restDocumentRepository) GetByID(ctx context.Context, id, userID uint) (doc *models.Document, err error) {
	const op = "documents.get"
	ctx, finish := r.start(ctx, op, "documents")
	defer finish(&err)

	rows, err := fetch[models.Document](ctx, r.from("documents").Select("*", "", false).
		Eq("id", idString(id)).Eq("user_id", idString(userID)).Limit(1, ""))
	if err != nil {
		return nil, classify(op, err)
	}
	return first(rows), nil
}

func (r *restDocumentRepository) Create(ctx context.Context, userID uint, in models.DocumentInput) (doc *models.Document, err error) {
	const op = "documents.create"
	ctx, finish := r.start(ctx, op, "documents")
	defer finish(&err)

	values := map[string]any{
		"user_id":          userID,
		"document_name":    in.DocumentName,
		"document_type":    in.DocumentType,
		"upload_date":      r.opts.now(),
		"file_path":        in.FilePath,
		"document_content": in.DocumentContent,
		"preferred_resume": 0,
	}
	rows, err := fetch[models.Document](ctx, r.from("documents").Insert(values, false, "", "representation", ""))
	if err != nil {
		return nil, classify(op, err)
	}
	doc = first(rows)
	if doc == nil {
		doc = &models.Document{
			UserID:          userID,
			DocumentName:    in.DocumentName,
			DocumentType:    in.DocumentType,
			UploadDate:      values["upload_date"].(string),
			FilePath:        in.FilePath,
			DocumentContent: in.DocumentContent,
		}
	}
	r.logWrite(ctx, "documents", op, 1)
	return doc, nil
}

func (r *restDocumentRepository) Delete(ctx context.Context, id, userID uint) (affected int64, err error) {
	const op = "documents.delete"
	ctx, finish := r.start(ctx, op, "documents")
	defer finish(&err)

	rows, err := fetch[idRow](ctx, r.from("documents").Delete("representation", "").
		Eq("id", idString(id)).Eq("user_id", idString(userID)))
	if err != nil {
		return 0, classify(op, err)
	}
	r.logWrite(ctx, "documents", op, int64(len(rows)))
	return int64(len(rows)), nil
}

type idTypeRow struct {
	ID           uint   `json:"id"`
	DocumentType string `json:"document_type"`
}

// SavePreferences validates the whole batch before the first write. The
// clearing step runs before the target is set, so the partial unique index
// on preferred rows never sees two at once. When a concurrent batch sets
// its own target between our clear and set, the index rejects our set; we
// clear again and retry so the later writer wins.
func (r *restDocumentRepository) SavePreferences(ctx context.Context, userID uint, batch []models.DocumentPreference) (applied int, err error) {
	const op = "documents.save_preferences"
	ctx, finish := r.start(ctx, op, "documents")
	defer finish(&err)

	if err := checkPreferredCount(batch); err != nil {
		return 0, classify(op, err)
	}
	if len(batch) == 0 {
		return 0, nil
	}

	owner := idString(userID)
	rows, err := fetch[idTypeRow](ctx, r.from("documents").Select("id,document_type", "", false).
		Eq("user_id", owner).In("id", idStrings(batchIDs(batch))))
	if err != nil {
		return 0, classify(op, err)
	}
	owned := make(map[uint]string, len(rows))
	for _, row := range rows {
		owned[row.ID] = row.DocumentType
	}

	plan, err := planPreferences(batch, owned)
	if err != nil {
		return 0, classify(op, err)
	}

	clearOthers := func() error {
		_, err := fetch[idRow](ctx, r.from("documents").
			Update(map[string]any{"preferred_resume": 0}, "representation", "").
			Eq("user_id", owner).Eq("preferred_resume", "1").Neq("id", idString(plan.target)))
		return err
	}
	set := func(row models.DocumentPreference) (int, error) {
		updated, err := fetch[idRow](ctx, r.from("documents").
			Update(map[string]any{"preferred_resume": row.Preferred.Int()}, "representation", "").
			Eq("id", idString(row.ID)).Eq("user_id", owner))
		return len(updated), err
	}

	if plan.target != 0 {
		if err := clearOthers(); err != nil {
			return 0, classify(op, err)
		}
	}

	for _, row := range plan.apply {
		n, err := set(row)
		for attempt := 0; err != nil && row.ID == plan.target && attempt < maxPreferenceRetries &&
			models.IsCode(classify(op, err), models.CodeConflict); attempt++ {
			observability.PreferenceBatches.WithLabelValues("retried").Inc()
			if err = clearOthers(); err == nil {
				n, err = set(row)
			}
		}
		if err != nil {
			return applied, classify(op, err)
		}
		applied += n
	}

	observability.PreferenceBatches.WithLabelValues("applied").Inc()
	r.logWrite(ctx, "documents", op, int64(applied))
	return applied, nil
}

func (r *restDocumentRepository) GetPreferredResume(ctx context.Context, userID uint) (doc *models.Document, err error) {
	const op = "documents.preferred"
	ctx, finish := r.start(ctx, op, "documents")
	defer finish(&err)

	rows, err := fetch[models.Document](ctx, r.from("documents").Select("*", "", false).
		Eq("user_id", idString(userID)).
		Eq("preferred_resume", "1").
		Eq("document_type", models.DocumentTypeResume).
		Limit(1, ""))
	if err != nil {
		return nil, classify(op, err)
	}
	return first(rows), nil
}
