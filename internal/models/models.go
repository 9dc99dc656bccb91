// Package models contains data structures for the job tracker's domain.
package models

import "time"

// TimestampLayout is the fixed, lexicographically sortable format used for
// every timestamp the data layer generates.
const TimestampLayout = "2006-01-02 15:04:05"

// DateLayout is the day-granular prefix of TimestampLayout.
const DateLayout = "2006-01-02"

// Timestamp formats t in TimestampLayout (UTC).
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Job statuses used by the application grid.
const (
	StatusNotApplied   = "Not Applied"
	StatusApplied      = "Applied"
	StatusInterviewing = "Interviewing"
	StatusOffered      = "Offered"
	StatusRejected     = "Rejected"
)

// JobStatuses lists the conventional status values in pipeline order.
var JobStatuses = []string{StatusNotApplied, StatusApplied, StatusInterviewing, StatusOffered, StatusRejected}

// Sentiment scale for a job.
const (
	SentimentVeryNegative = "Very Negative"
	SentimentNegative     = "Negative"
	SentimentNeutral      = "Neutral"
	SentimentPositive     = "Positive"
	SentimentVeryPositive = "Very Positive"
)

// Sentiments lists the conventional sentiment values from worst to best.
var Sentiments = []string{SentimentVeryNegative, SentimentNegative, SentimentNeutral, SentimentPositive, SentimentVeryPositive}

// Document types.
const (
	DocumentTypeResume      = "Resume"
	DocumentTypeCoverLetter = "Cover Letter"
	DocumentTypeOther       = "Other"
)

// DocumentTypes lists the accepted document types.
var DocumentTypes = []string{DocumentTypeResume, DocumentTypeCoverLetter, DocumentTypeOther}

// Contains reports whether v is one of values.
func Contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
