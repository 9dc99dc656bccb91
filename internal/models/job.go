package models

// Job is one tracked application.
type Job struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	UserID         uint   `gorm:"index;not null" json:"user_id"`
	CompanyName    string `json:"company_name"`
	JobTitle       string `json:"job_title"`
	JobDescription string `json:"job_description"`
	ApplicationURL string `gorm:"column:application_url" json:"application_url"`
	Status         string `json:"status"`
	Sentiment      string `json:"sentiment"`
	Notes          string `json:"notes"`
	DateAdded      string `json:"date_added"`
	Location       string `json:"location"`
	Salary         string `json:"salary"`
	AppliedDate    string `json:"applied_date"`
}

// TableName returns the database table name for Job.
func (Job) TableName() string {
	return "jobs"
}

// JobInput carries the caller-editable job fields.
type JobInput struct {
	CompanyName    string `json:"company_name" validate:"required,max=200"`
	JobTitle       string `json:"job_title" validate:"required,max=200"`
	JobDescription string `json:"job_description"`
	ApplicationURL string `json:"application_url" validate:"omitempty,url"`
	Status         string `json:"status" validate:"omitempty,job_status"`
	Sentiment      string `json:"sentiment" validate:"omitempty,sentiment"`
	Notes          string `json:"notes"`
	Location       string `json:"location"`
	Salary         string `json:"salary"`
	AppliedDate    string `json:"applied_date" validate:"omitempty,datetime=2006-01-02"`
}

// Columns returns the input as a column map for partial writes.
func (in JobInput) Columns() map[string]any {
	return map[string]any{
		"company_name":    in.CompanyName,
		"job_title":       in.JobTitle,
		"job_description": in.JobDescription,
		"application_url": in.ApplicationURL,
		"status":          in.Status,
		"sentiment":       in.Sentiment,
		"notes":           in.Notes,
		"location":        in.Location,
		"salary":          in.Salary,
		"applied_date":    in.AppliedDate,
	}
}

// Apply copies the editable fields onto j.
func (in JobInput) Apply(j *Job) {
	j.CompanyName = in.CompanyName
	j.JobTitle = in.JobTitle
	j.JobDescription = in.JobDescription
	j.ApplicationURL = in.ApplicationURL
	j.Status = in.Status
	j.Sentiment = in.Sentiment
	j.Notes = in.Notes
	j.Location = in.Location
	j.Salary = in.Salary
	j.AppliedDate = in.AppliedDate
}

// JobRow is one row of a bulk grid save. ID 0 marks a new row.
type JobRow struct {
	ID uint `json:"id"`
	JobInput
}

// ReplaceResult summarises a bulk grid save.
type ReplaceResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Deleted  int `json:"deleted"`
}

// UserStats aggregates a user's jobs.
type UserStats struct {
	TotalApplications  int            `json:"total_applications"`
	StatusCounts       map[string]int `json:"status_counts"`
	RecentApplications int            `json:"recent_applications"`
}
