package models

// User is an account. Deleting a user removes every row it owns.
type User struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	Username     string  `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string  `gorm:"column:password_hash;not null" json:"-"`
	Email        *string `gorm:"uniqueIndex" json:"email,omitempty"`
	CreatedAt    string  `gorm:"column:created_at" json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string {
	return "users"
}

// UserProfile holds per-user settings. There is at most one per user.
type UserProfile struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	UserID          uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	SelectedResume  string `json:"selected_resume"`
	CreatedDate     string `json:"created_date"`
	LastUpdatedDate string `json:"last_updated_date"`
}

// TableName returns the database table name for UserProfile.
func (UserProfile) TableName() string {
	return "user_profile"
}

// CareerGoal is one entry of a user's append-only goals history.
type CareerGoal struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	UserID         uint   `gorm:"index;not null" json:"user_id"`
	Goals          string `json:"goals"`
	SubmissionDate string `json:"submission_date"`
}

// TableName returns the database table name for CareerGoal.
func (CareerGoal) TableName() string {
	return "career_goals"
}
