// Package ledger owns the two record collections, Medications and Intake
// Logs, and every mutation path into them. Handlers never touch the cached
// collections directly; all writes flow through a Ledger operation.
package ledger

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/yourname/medtracker/internal"
	"github.com/yourname/medtracker/internal/adherence"
	"github.com/yourname/medtracker/internal/session"
	"github.com/yourname/medtracker/internal/storage"
)

var validate = validator.New()

type MedicationInput struct {
	Name       string `json:"medication_name" validate:"required,min=2"`
	Dosage     string `json:"dosage"`
	Frequency  string `json:"frequency" validate:"omitempty,oneof='Daily' 'Twice Daily' 'Three Times Daily' 'Weekly' 'As Needed'"`
	TimeToTake string `json:"time_to_take"`
}

type MedicationPatch struct {
	Name       *string `json:"medication_name" validate:"omitempty,min=2"`
	Dosage     *string `json:"dosage"`
	Frequency  *string `json:"frequency" validate:"omitempty,oneof='Daily' 'Twice Daily' 'Three Times Daily' 'Weekly' 'As Needed'"`
	TimeToTake *string `json:"time_to_take"`
}

type MarkTakenInput struct {
	DateTaken string `json:"date_taken" validate:"omitempty,datetime=2006-01-02"`
	PhotoURL  string `json:"photo_url"`
}

// Ledger serves the record collections for one user. It caches both
// collections, stamps a version counter on every change, and recomputes the
// adherence snapshot through a version-keyed memo.
type Ledger struct {
	sess   *session.Session
	meds   storage.MedicationRepository
	logs   storage.IntakeLogRepository
	logger internal.Logger
	now    func() time.Time

	mu          sync.RWMutex
	medications []internal.Medication
	intakeLogs  []internal.IntakeLog
	medsLoaded  bool
	logsLoaded  bool
	medsVer     uint64
	logsVer     uint64
	// Refresh generations: a refresh result is applied only if no newer
	// refresh started after it, so a slow stale response cannot clobber a
	// fresher one.
	medsGen uint64
	logsGen uint64

	stats adherence.StatsCache
}

func New(sess *session.Session, meds storage.MedicationRepository, logs storage.IntakeLogRepository, logger internal.Logger) *Ledger {
	return &Ledger{
		sess:   sess,
		meds:   meds,
		logs:   logs,
		logger: logger,
		now:    time.Now,
	}
}

// Bind swaps in the session from the latest request, so TTL expiry of the
// current session governs subsequent operations.
func (l *Ledger) Bind(sess *session.Session) {
	l.mu.Lock()
	l.sess = sess
	l.mu.Unlock()
}

// SetClock overrides the ledger's time source. Tests only.
func (l *Ledger) SetClock(now func() time.Time) {
	l.mu.Lock()
	l.now = now
	l.mu.Unlock()
}

func (l *Ledger) user() (*internal.User, error) {
	l.mu.RLock()
	sess := l.sess
	l.mu.RUnlock()
	return sess.User()
}

// --- Medications ---

// ListMedications returns the user's medications, newest-created first.
func (l *Ledger) ListMedications(ctx context.Context) ([]internal.Medication, error) {
	if _, err := l.user(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	loaded := l.medsLoaded
	l.mu.RUnlock()
	if !loaded {
		if err := l.RefreshMedications(ctx); err != nil {
			return nil, err
		}
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]internal.Medication, len(l.medications))
	copy(out, l.medications)
	return out, nil
}

// RefreshMedications reloads the medication collection from the backend.
// A result superseded by a newer refresh is discarded.
func (l *Ledger) RefreshMedications(ctx context.Context) error {
	u, err := l.user()
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.medsGen++
	gen := l.medsGen
	l.mu.Unlock()

	rows, err := l.meds.ListMedications(ctx, u.ID)
	if err != nil {
		return &internal.StoreError{Op: "list medications", Err: err}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.medsGen {
		l.logger.Debugf("discarding stale medications refresh (gen %d < %d)", gen, l.medsGen)
		return nil
	}
	l.medications = rows
	l.medsLoaded = true
	l.medsVer++
	return nil
}

// AddMedication validates the input, persists a new medication owned by the
// session user, and returns the stored record.
func (l *Ledger) AddMedication(ctx context.Context, input *MedicationInput) (*internal.Medication, error) {
	u, err := l.user()
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(input); err != nil {
		return nil, &internal.ValidationError{Err: err}
	}

	freq := input.Frequency
	if freq == "" {
		freq = internal.FrequencyDaily
	}
	now := l.now()
	med := &internal.Medication{
		ID:         uuid.NewString(),
		UserID:     u.ID,
		Name:       strings.TrimSpace(input.Name),
		Dosage:     input.Dosage,
		Frequency:  freq,
		TimeToTake: input.TimeToTake,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := l.meds.InsertMedication(ctx, med); err != nil {
		return nil, &internal.StoreError{Op: "insert medication", Err: err}
	}

	l.mu.Lock()
	if l.medsLoaded {
		l.medications = append([]internal.Medication{*med}, l.medications...)
	}
	l.medsVer++
	l.mu.Unlock()

	l.logger.Infof("added medication %s for user %s", med.ID, u.ID)
	return med, nil
}

// UpdateMedication applies a partial update to one of the user's
// medications and bumps its UpdatedAt.
func (l *Ledger) UpdateMedication(ctx context.Context, id string, patch *MedicationPatch) (*internal.Medication, error) {
	u, err := l.user()
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(patch); err != nil {
		return nil, &internal.ValidationError{Err: err}
	}

	if _, err := l.ListMedications(ctx); err != nil {
		return nil, err
	}

	l.mu.RLock()
	var current *internal.Medication
	for i := range l.medications {
		if l.medications[i].ID == id {
			m := l.medications[i]
			current = &m
			break
		}
	}
	l.mu.RUnlock()
	if current == nil {
		return nil, internal.ErrNotFound
	}

	if patch.Name != nil {
		current.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Dosage != nil {
		current.Dosage = *patch.Dosage
	}
	if patch.Frequency != nil {
		current.Frequency = *patch.Frequency
	}
	if patch.TimeToTake != nil {
		current.TimeToTake = *patch.TimeToTake
	}
	current.UpdatedAt = l.now()

	if err := l.meds.UpdateMedication(ctx, current); err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			return nil, err
		}
		return nil, &internal.StoreError{Op: "update medication", Err: err}
	}

	l.mu.Lock()
	for i := range l.medications {
		if l.medications[i].ID == id {
			l.medications[i] = *current
			break
		}
	}
	l.medsVer++
	l.mu.Unlock()

	l.logger.Infof("updated medication %s for user %s", id, u.ID)
	return current, nil
}

// DeleteMedication removes a medication and every intake log referencing it.
// Logs go first; if the medication delete then fails the logs stay gone,
// which is accepted (they would have been orphans anyway) and surfaced as an
// error without rollback.
func (l *Ledger) DeleteMedication(ctx context.Context, id string) error {
	u, err := l.user()
	if err != nil {
		return err
	}

	if err := l.logs.DeleteLogsByMedication(ctx, id, u.ID); err != nil {
		return &internal.StoreError{Op: "delete intake logs", Err: err}
	}

	// Filter into a fresh slice so earlier reads of the old backing array
	// are never written through.
	l.mu.Lock()
	kept := make([]internal.IntakeLog, 0, len(l.intakeLogs))
	for _, log := range l.intakeLogs {
		if log.MedicationID != id {
			kept = append(kept, log)
		}
	}
	l.intakeLogs = kept
	l.logsVer++
	l.mu.Unlock()

	if err := l.meds.DeleteMedication(ctx, id, u.ID); err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			return err
		}
		return &internal.StoreError{Op: "delete medication", Err: err}
	}

	l.mu.Lock()
	for i := range l.medications {
		if l.medications[i].ID == id {
			l.medications = append(l.medications[:i], l.medications[i+1:]...)
			break
		}
	}
	l.medsVer++
	l.mu.Unlock()

	l.logger.Infof("deleted medication %s and its logs for user %s", id, u.ID)
	return nil
}

// --- Intake logs ---

// ListIntakeLogs returns the user's logs, most-recently-taken first.
func (l *Ledger) ListIntakeLogs(ctx context.Context) ([]internal.IntakeLog, error) {
	if _, err := l.user(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	loaded := l.logsLoaded
	l.mu.RUnlock()
	if !loaded {
		if err := l.RefreshIntakeLogs(ctx); err != nil {
			return nil, err
		}
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]internal.IntakeLog, len(l.intakeLogs))
	copy(out, l.intakeLogs)
	return out, nil
}

// RefreshIntakeLogs reloads the log collection from the backend, discarding
// the result if a newer refresh started in the meantime.
func (l *Ledger) RefreshIntakeLogs(ctx context.Context) error {
	u, err := l.user()
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.logsGen++
	gen := l.logsGen
	l.mu.Unlock()

	rows, err := l.logs.ListIntakeLogs(ctx, u.ID)
	if err != nil {
		return &internal.StoreError{Op: "list intake logs", Err: err}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.logsGen {
		l.logger.Debugf("discarding stale intake-logs refresh (gen %d < %d)", gen, l.logsGen)
		return nil
	}
	l.intakeLogs = rows
	l.logsLoaded = true
	l.logsVer++
	return nil
}

// MarkTaken upserts an intake log keyed by (medication, user, date). The
// cached collection is updated speculatively before the backend call; on
// failure the prior snapshot is restored verbatim, on success the
// speculative row is replaced by the server-confirmed one.
func (l *Ledger) MarkTaken(ctx context.Context, medicationID string, input *MarkTakenInput) (*internal.IntakeLog, error) {
	u, err := l.user()
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(input); err != nil {
		return nil, &internal.ValidationError{Err: err}
	}

	now := l.now()
	dateTaken := input.DateTaken
	if dateTaken == "" {
		dateTaken = now.Format(internal.DateLayout)
	}

	speculative := internal.IntakeLog{
		ID:           "temp-" + uuid.NewString(),
		MedicationID: medicationID,
		UserID:       u.ID,
		DateTaken:    dateTaken,
		TakenAt:      now,
		PhotoURL:     input.PhotoURL,
		CreatedAt:    now,
	}

	// Snapshot, then apply the optimistic insert.
	l.mu.Lock()
	snapshot := make([]internal.IntakeLog, len(l.intakeLogs))
	copy(snapshot, l.intakeLogs)
	l.applyUpsertLocked(speculative)
	l.logsVer++
	l.mu.Unlock()

	persisted := speculative
	persisted.ID = uuid.NewString()
	saved, err := l.logs.UpsertIntakeLog(ctx, &persisted)
	if err != nil {
		// Roll back to the pre-mutation snapshot.
		l.mu.Lock()
		l.intakeLogs = snapshot
		l.logsVer++
		l.mu.Unlock()
		return nil, &internal.StoreError{Op: "upsert intake log", Err: err}
	}

	// Reconcile the speculative row with the confirmed one.
	l.mu.Lock()
	l.applyUpsertLocked(*saved)
	l.logsVer++
	l.mu.Unlock()

	l.logger.Infof("marked medication %s taken on %s for user %s", medicationID, dateTaken, u.ID)
	return saved, nil
}

// applyUpsertLocked replaces the cached row with the same (medication, user,
// date) key or prepends a new one. Caller holds mu.
func (l *Ledger) applyUpsertLocked(log internal.IntakeLog) {
	for i := range l.intakeLogs {
		if l.intakeLogs[i].MedicationID == log.MedicationID &&
			l.intakeLogs[i].UserID == log.UserID &&
			l.intakeLogs[i].DateTaken == log.DateTaken {
			l.intakeLogs[i] = log
			return
		}
	}
	l.intakeLogs = append([]internal.IntakeLog{log}, l.intakeLogs...)
}

// --- Derived stats ---

// Stats returns the adherence snapshot for the current collections,
// recomputing only when a collection version moved.
func (l *Ledger) Stats(ctx context.Context) (internal.AdherenceStats, error) {
	if _, err := l.ListMedications(ctx); err != nil {
		return internal.AdherenceStats{}, err
	}
	if _, err := l.ListIntakeLogs(ctx); err != nil {
		return internal.AdherenceStats{}, err
	}

	// Copy both collections under the lock: mutators write the cached
	// backing arrays in place, and the calculator reads outside the lock.
	l.mu.RLock()
	meds := make([]internal.Medication, len(l.medications))
	copy(meds, l.medications)
	logs := make([]internal.IntakeLog, len(l.intakeLogs))
	copy(logs, l.intakeLogs)
	medsVer := l.medsVer
	logsVer := l.logsVer
	now := l.now
	l.mu.RUnlock()

	return l.stats.Get(meds, logs, medsVer, logsVer, now()), nil
}
