package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yourname/medtracker/internal"
)

type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStorage(dsn string, logger internal.Logger) (*PostgresStorage, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	return &PostgresStorage{pool: pool, logger: logger}, nil
}

// --- MedicationRepository ---

func (p *PostgresStorage) InsertMedication(ctx context.Context, med *internal.Medication) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO medications (id, user_id, medication_name, dosage, frequency, time_to_take, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		med.ID, med.UserID, med.Name, med.Dosage, med.Frequency, med.TimeToTake, med.CreatedAt, med.UpdatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert medication: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) ListMedications(ctx context.Context, userID string) ([]internal.Medication, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, user_id, medication_name, dosage, frequency, time_to_take, created_at, updated_at FROM medications WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		p.logger.Errorf("failed to query medications: %v", err)
		return nil, err
	}
	defer rows.Close()

	var meds []internal.Medication
	for rows.Next() {
		var m internal.Medication
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.Dosage, &m.Frequency, &m.TimeToTake, &m.CreatedAt, &m.UpdatedAt); err != nil {
			p.logger.Errorf("failed to scan medication: %v", err)
			return nil, err
		}
		meds = append(meds, m)
	}
	return meds, rows.Err()
}

func (p *PostgresStorage) UpdateMedication(ctx context.Context, med *internal.Medication) error {
	tag, err := p.pool.Exec(ctx, `UPDATE medications SET medication_name = $1, dosage = $2, frequency = $3, time_to_take = $4, updated_at = $5 WHERE id = $6 AND user_id = $7`,
		med.Name, med.Dosage, med.Frequency, med.TimeToTake, med.UpdatedAt, med.ID, med.UserID)
	if err != nil {
		p.logger.Errorf("failed to update medication: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return internal.ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) DeleteMedication(ctx context.Context, id, userID string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM medications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		p.logger.Errorf("failed to delete medication: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return internal.ErrNotFound
	}
	return nil
}

// --- IntakeLogRepository ---

func (p *PostgresStorage) UpsertIntakeLog(ctx context.Context, log *internal.IntakeLog) (*internal.IntakeLog, error) {
	row := p.pool.QueryRow(ctx, `INSERT INTO intake_logs (id, medication_id, user_id, date_taken, taken_at, photo_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (medication_id, user_id, date_taken)
		DO UPDATE SET taken_at = EXCLUDED.taken_at, photo_url = EXCLUDED.photo_url
		RETURNING id, medication_id, user_id, date_taken, taken_at, photo_url, created_at`,
		log.ID, log.MedicationID, log.UserID, log.DateTaken, log.TakenAt, log.PhotoURL, log.CreatedAt)

	var saved internal.IntakeLog
	if err := row.Scan(&saved.ID, &saved.MedicationID, &saved.UserID, &saved.DateTaken, &saved.TakenAt, &saved.PhotoURL, &saved.CreatedAt); err != nil {
		p.logger.Errorf("failed to upsert intake log: %v", err)
		return nil, err
	}
	return &saved, nil
}

func (p *PostgresStorage) ListIntakeLogs(ctx context.Context, userID string) ([]internal.IntakeLog, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, medication_id, user_id, date_taken, taken_at, photo_url, created_at FROM intake_logs WHERE user_id = $1 ORDER BY taken_at DESC`, userID)
	if err != nil {
		p.logger.Errorf("failed to query intake logs: %v", err)
		return nil, err
	}
	defer rows.Close()

	var logs []internal.IntakeLog
	for rows.Next() {
		var l internal.IntakeLog
		if err := rows.Scan(&l.ID, &l.MedicationID, &l.UserID, &l.DateTaken, &l.TakenAt, &l.PhotoURL, &l.CreatedAt); err != nil {
			p.logger.Errorf("failed to scan intake log: %v", err)
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (p *PostgresStorage) DeleteLogsByMedication(ctx context.Context, medicationID, userID string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM intake_logs WHERE medication_id = $1 AND user_id = $2`, medicationID, userID)
	if err != nil {
		p.logger.Errorf("failed to delete intake logs: %v", err)
		return err
	}
	return nil
}

// GetUserByToken looks up a pre-provisioned API token. Backs the "token"
// auth mode, where tokens are managed in the database instead of signed.
func (p *PostgresStorage) GetUserByToken(ctx context.Context, token string) (*internal.User, error) {
	row := p.pool.QueryRow(ctx, `SELECT id, token, name, role FROM users WHERE token = $1`, token)
	var u internal.User
	if err := row.Scan(&u.ID, &u.Token, &u.Name, &u.Role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, internal.ErrNotFound
		}
		p.logger.Errorf("user lookup failed: %v", err)
		return nil, err
	}
	return &u, nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// --- Compile-time assertions ---
var _ MedicationRepository = (*PostgresStorage)(nil)
var _ IntakeLogRepository = (*PostgresStorage)(nil)
