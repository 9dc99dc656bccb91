package models

import (
	"database/sql/driver"
	"fmt"
	"strconv"
)

// Flag is a boolean stored and serialised as the integer 0 or 1.
type Flag bool

// Int returns 1 for true and 0 for false.
func (f Flag) Int() int {
	if f {
		return 1
	}
	return 0
}

// MarshalJSON writes 0 or 1.
func (f Flag) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(f.Int())), nil
}

// UnmarshalJSON accepts 0/1, true/false and null.
func (f *Flag) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "1", "true":
		*f = true
	case "0", "false", "null":
		*f = false
	default:
		return fmt.Errorf("invalid flag value %s", data)
	}
	return nil
}

// Value implements driver.Valuer.
func (f Flag) Value() (driver.Value, error) {
	return int64(f.Int()), nil
}

// Scan implements sql.Scanner.
func (f *Flag) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*f = false
	case int64:
		*f = v != 0
	case bool:
		*f = Flag(v)
	case []byte:
		n, err := strconv.Atoi(string(v))
		if err != nil {
			return fmt.Errorf("scan flag: %w", err)
		}
		*f = n != 0
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("scan flag: %w", err)
		}
		*f = n != 0
	default:
		return fmt.Errorf("scan flag: unsupported type %T", src)
	}
	return nil
}

// Document is an uploaded file. Content is kept both on disk (FilePath) and
// inline (DocumentContent) so hosted deployments without a filesystem still
// have the text.
type Document struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	UserID          uint   `gorm:"index;not null" json:"user_id"`
	DocumentName    string `json:"document_name"`
	DocumentType    string `json:"document_type"`
	UploadDate      string `json:"upload_date"`
	FilePath        string `json:"file_path"`
	DocumentContent string `json:"document_content"`
	PreferredResume Flag   `gorm:"column:preferred_resume;not null" json:"preferred_resume"`
}

// TableName returns the database table name for Document.
func (Document) TableName() string {
	return "documents"
}

// DocumentInput carries the fields recorded on upload.
type DocumentInput struct {
	DocumentName    string `json:"document_name" validate:"required,max=255"`
	DocumentType    string `json:"document_type" validate:"required,document_type"`
	FilePath        string `json:"file_path"`
	DocumentContent string `json:"document_content"`
}

// DocumentPreference is one row of a preferred-resume batch.
type DocumentPreference struct {
	ID        uint `json:"id" validate:"required"`
	Preferred Flag `json:"preferred_resume"`
}
