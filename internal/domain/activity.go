package domain

// Activity records the usage of a self-help activity (breathing, meditation, cbt...).
// UserID is empty for anonymous callers.
type Activity struct {
	ID              ActivityID
	UserID          UserID
	ActivityType    string
	DurationSeconds *int
	Completed       bool
	Notes           string
	CreatedAt       Timestamp
}
