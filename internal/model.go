package internal

import "time"

// DateLayout is the civil-date format used for IntakeLog.DateTaken. A dose
// counts toward a calendar day, independent of the time it was recorded.
const DateLayout = "2006-01-02"

// Frequency options accepted for a medication schedule.
const (
	FrequencyDaily           = "Daily"
	FrequencyTwiceDaily      = "Twice Daily"
	FrequencyThreeTimesDaily = "Three Times Daily"
	FrequencyWeekly          = "Weekly"
	FrequencyAsNeeded        = "As Needed"
)

// Frequencies lists every valid Frequency value.
func Frequencies() []string {
	return []string{
		FrequencyDaily,
		FrequencyTwiceDaily,
		FrequencyThreeTimesDaily,
		FrequencyWeekly,
		FrequencyAsNeeded,
	}
}

type User struct {
	ID    string `json:"id"`
	Token string `json:"token,omitempty"`
	Name  string `json:"name"`
	Role  string `json:"role,omitempty"` // patient or caretaker
}

type Medication struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"medication_name"`
	Dosage     string    `json:"dosage,omitempty"`
	Frequency  string    `json:"frequency"`
	TimeToTake string    `json:"time_to_take,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IntakeLog records one "marked taken" event. At most one row exists per
// (MedicationID, UserID, DateTaken); repeated marks update TakenAt.
type IntakeLog struct {
	ID           string    `json:"id"`
	MedicationID string    `json:"medication_id"`
	UserID       string    `json:"user_id"`
	DateTaken    string    `json:"date_taken"` // YYYY-MM-DD
	TakenAt      time.Time `json:"taken_at"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// AdherenceStats is derived, never persisted.
type AdherenceStats struct {
	TotalMedications    int `json:"total_medications"`
	TakenToday          int `json:"taken_today"`
	AdherencePercentage int `json:"adherence_percentage"`
	CurrentStreak       int `json:"current_streak"`
	MissedThisMonth     int `json:"missed_this_month"`
}

type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewAppError(code int, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

func (e *AppError) Error() string { return e.Message }
