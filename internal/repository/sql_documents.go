package repository

import (
	"context"
	"errors"

	"jobtracker/internal/models"
	"jobtracker/internal/observability"

	"gorm.io/gorm"
)

type sqlDocumentRepository struct {
	sqlBase
}

func (r *sqlDocumentRepository) ListByUser(ctx context.Context, userID uint) (docs []models.Document, err error) {
	const op = "documents.list"
	ctx, finish := r.start(ctx, op, "documents")
	defer finish(&err)

	docs = []models.Document{}
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("upload_date DESC").Order("id DESC").
		Find(&docs).Error; err != nil {
		return nil, classify(op, err)
	}
	return docs, nil
}

func (r *sqlDocumentRepository) ListByType(ctx context.Context, userID uint, docType string) (docs []models.Document, err error) {
	const op = "documents.list_by_type"
	ctx, finish := r.start(ctx, op, "documents")
	defer finish(&err)

	docs = []models.Document{}
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND document_type = ?", userID, docType).
		Order("upload_date DESC").Order("id DESC").
		Find(&docs).Error; err != nil {
		return nil, classify(op, err)
	}
	return docs, nil
}

func (r *sqlDocumentRepository) GetByID(ctx context.Context, id, userID uint) (doc *models.Document, err error) {
	const op = "documents.get"
	ctx, finish := r.start(ctx, op, "documents")
	defer finish(&err)

	var d models.Document
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Take(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, classify(op, err)
	}
	return &d, nil
}

func (r *sqlDocumentRepository) Create(ctx context.Context, userID uint, in models.DocumentInput) (doc *models.Document, err error) {
	const op = "documents.create"
	ctx, finish := r.start(ctx, op, "documents")
	defer finish(&err)

	d := &models.Document{
		UserID:          userID,
		DocumentName:    in.DocumentName,
		DocumentType:    in.DocumentType,
		UploadDate:      r.opts.now(),
		FilePath:        in.FilePath,
		DocumentContent: in.DocumentContent,
		PreferredResume: false,
	}
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		return nil, classify(op, err)
	}
	r.logWrite(ctx, "documents", op, 1)
	return d, nil
}

func (r *sqlDocumentRepository) Delete(ctx context.Context, id, userID uint) (affected int64, err error) {
	const op = "documents.delete"
	ctx, finish := r.start(ctx, op, "documents")
	defer finish(&err)

	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Document{})
	if res.Error != nil {
		return 0, classify(op, res.Error)
	}
	r.logWrite(ctx, "documents", op, res.RowsAffected)
	return res.RowsAffected, nil
}

type idType struct {
	ID           uint
	DocumentType string
}

// SavePreferences runs the whole batch in one transaction: ownership and
// type checks first, then clearing the user's other preferred rows, then
// the per-row flag writes. A transaction that loses a race with another
// batch on the preferred-row unique index is replayed.
func (r *sqlDocumentRepository) SavePreferences(ctx context.Context, userID uint, batch []models.DocumentPreference) (applied int, err error) {
	const op = "documents.save_preferences"
	ctx, finish := r.start(ctx, op, "documents")
	defer finish(&err)

	if err := checkPreferredCount(batch); err != nil {
		return 0, classify(op, err)
	}
	if len(batch) == 0 {
		return 0, nil
	}

	apply := func(tx *gorm.DB) error {
		applied = 0
		var rows []idType
		if err := tx.Model(&models.Document{}).
			Select("id, document_type").
			Where("user_id = ? AND id IN ?", userID, batchIDs(batch)).
			Scan(&rows).Error; err != nil {
			return err
		}
		owned := make(map[uint]string, len(rows))
		for _, row := range rows {
			owned[row.ID] = row.DocumentType
		}

		plan, err := planPreferences(batch, owned)
		if err != nil {
			return err
		}

		if plan.target != 0 {
			if err := tx.Model(&models.Document{}).
				Where("user_id = ? AND id <> ? AND preferred_resume = 1", userID, plan.target).
				Update("preferred_resume", 0).Error; err != nil {
				return err
			}
		}

		for _, row := range plan.apply {
			res := tx.Model(&models.Document{}).
				Where("id = ? AND user_id = ?", row.ID, userID).
				Update("preferred_resume", row.Preferred.Int())
			if res.Error != nil {
				return res.Error
			}
			applied += int(res.RowsAffected)
		}
		return nil
	}

	err = r.db.WithContext(ctx).Transaction(apply)
	for attempt := 0; err != nil && attempt < maxPreferenceRetries &&
		models.IsCode(classify(op, err), models.CodeConflict); attempt++ {
		observability.PreferenceBatches.WithLabelValues("retried").Inc()
		err = r.db.WithContext(ctx).Transaction(apply)
	}
	if err != nil {
		return 0, classify(op, err)
	}

	observability.PreferenceBatches.WithLabelValues("applied").Inc()
	r.logWrite(ctx, "documents", op, int64(applied))
	return applied, nil
}

func (r *sqlDocumentRepository) GetPreferredResume(ctx context.Context, userID uint) (doc *models.Document, err error) {
	const op = "documents.preferred"
	ctx, finish := r.start(ctx, op, "documents")
	defer finish(&err)

	var d models.Document
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND preferred_resume = 1 AND document_type = ?", userID, models.DocumentTypeResume).
		Take(&d).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, classify(op, err)
	}
	return &d, nil
}
