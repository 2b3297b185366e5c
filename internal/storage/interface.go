package storage

import (
	"context"

	"github.com/yourname/medtracker/internal"
)

type MedicationRepository interface {
	InsertMedication(ctx context.Context, med *internal.Medication) error
	// ListMedications returns the user's medications newest-created first.
	ListMedications(ctx context.Context, userID string) ([]internal.Medication, error)
	UpdateMedication(ctx context.Context, med *internal.Medication) error
	DeleteMedication(ctx context.Context, id, userID string) error
}

type IntakeLogRepository interface {
	// UpsertIntakeLog inserts or, on a (medication, user, date) conflict,
	// updates the existing row. Returns the persisted row.
	UpsertIntakeLog(ctx context.Context, log *internal.IntakeLog) (*internal.IntakeLog, error)
	// ListIntakeLogs returns the user's logs most-recently-taken first.
	ListIntakeLogs(ctx context.Context, userID string) ([]internal.IntakeLog, error)
	DeleteLogsByMedication(ctx context.Context, medicationID, userID string) error
}
