package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/yourname/medtracker/internal"
)

// FileStorage keeps both collections in memory, indexed per user, and
// persists them as JSON with debounced background saves.
type FileStorage struct {
	medications  map[string]*internal.Medication // id -> Medication
	userMedIndex map[string][]*internal.Medication

	intakeLogs   map[string]*internal.IntakeLog // id -> IntakeLog
	userLogIndex map[string][]*internal.IntakeLog
	logKeyIndex  map[string]*internal.IntakeLog // medicationID|userID|dateTaken -> IntakeLog

	mu sync.RWMutex

	medsFile     string
	logsFile     string
	saveMedsChan chan struct{}
	saveLogsChan chan struct{}
	shutdownChan chan struct{}
	saveDelay    time.Duration
	logger       internal.Logger
}

func NewFileStorage(medsFile, logsFile string, logger internal.Logger) (*FileStorage, error) {
	s := &FileStorage{
		medications:  make(map[string]*internal.Medication),
		userMedIndex: make(map[string][]*internal.Medication),
		intakeLogs:   make(map[string]*internal.IntakeLog),
		userLogIndex: make(map[string][]*internal.IntakeLog),
		logKeyIndex:  make(map[string]*internal.IntakeLog),
		medsFile:     medsFile,
		logsFile:     logsFile,
		saveMedsChan: make(chan struct{}, 1),
		saveLogsChan: make(chan struct{}, 1),
		shutdownChan: make(chan struct{}),
		saveDelay:    500 * time.Millisecond,
		logger:       logger,
	}

	if err := s.loadMedications(); err != nil {
		logger.Errorf("storage: failed to load medications: %v", err)
		return nil, err
	}
	if err := s.loadIntakeLogs(); err != nil {
		logger.Errorf("storage: failed to load intake logs: %v", err)
		return nil, err
	}

	go s.saveWorker(s.saveMedsChan, s.saveMedications, "medications")
	go s.saveWorker(s.saveLogsChan, s.saveIntakeLogs, "intake logs")

	return s, nil
}

func logKey(medicationID, userID, dateTaken string) string {
	return medicationID + "|" + userID + "|" + dateTaken
}

func (s *FileStorage) loadMedications() error {
	file, err := os.Open(s.medsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	var meds []*internal.Medication
	if err := json.NewDecoder(file).Decode(&meds); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range meds {
		s.medications[m.ID] = m
		s.userMedIndex[m.UserID] = append(s.userMedIndex[m.UserID], m)
	}
	for userID := range s.userMedIndex {
		sort.Slice(s.userMedIndex[userID], func(i, j int) bool {
			return s.userMedIndex[userID][i].CreatedAt.After(s.userMedIndex[userID][j].CreatedAt)
		})
	}
	return nil
}

func (s *FileStorage) loadIntakeLogs() error {
	file, err := os.Open(s.logsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	var logs []*internal.IntakeLog
	if err := json.NewDecoder(file).Decode(&logs); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range logs {
		s.intakeLogs[l.ID] = l
		s.userLogIndex[l.UserID] = append(s.userLogIndex[l.UserID], l)
		s.logKeyIndex[logKey(l.MedicationID, l.UserID, l.DateTaken)] = l
	}
	for userID := range s.userLogIndex {
		sort.Slice(s.userLogIndex[userID], func(i, j int) bool {
			return s.userLogIndex[userID][i].TakenAt.After(s.userLogIndex[userID][j].TakenAt)
		})
	}
	return nil
}

func atomicWriteFileJSON(filePath string, data interface{}) error {
	tempFile := filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}
	return os.Rename(tempFile, filePath)
}

func (s *FileStorage) saveMedications() error {
	s.mu.RLock()
	meds := make([]*internal.Medication, 0, len(s.medications))
	for _, m := range s.medications {
		meds = append(meds, m)
	}
	s.mu.RUnlock()
	return atomicWriteFileJSON(s.medsFile, meds)
}

func (s *FileStorage) saveIntakeLogs() error {
	s.mu.RLock()
	logs := make([]*internal.IntakeLog, 0, len(s.intakeLogs))
	for _, l := range s.intakeLogs {
		logs = append(logs, l)
	}
	s.mu.RUnlock()
	return atomicWriteFileJSON(s.logsFile, logs)
}

// saveWorker batches save signals so bursts of writes hit the disk once.
func (s *FileStorage) saveWorker(signal chan struct{}, save func() error, what string) {
	timer := time.NewTimer(s.saveDelay)
	defer timer.Stop()

	for {
		select {
		case <-signal:
			timer.Reset(s.saveDelay)
		case <-timer.C:
			if err := save(); err != nil {
				s.logger.Errorf("storage: error saving %s: %v", what, err)
			}
		case <-s.shutdownChan:
			return
		}
	}
}

func signalSave(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// --- MedicationRepository ---

func (s *FileStorage) InsertMedication(ctx context.Context, med *internal.Medication) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := *med
	s.medications[m.ID] = &m
	// Newest-created first.
	s.userMedIndex[m.UserID] = append([]*internal.Medication{&m}, s.userMedIndex[m.UserID]...)

	signalSave(s.saveMedsChan)
	return nil
}

func (s *FileStorage) ListMedications(ctx context.Context, userID string) ([]internal.Medication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index := s.userMedIndex[userID]
	meds := make([]internal.Medication, len(index))
	for i, m := range index {
		meds[i] = *m
	}
	return meds, nil
}

func (s *FileStorage) UpdateMedication(ctx context.Context, med *internal.Medication) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.medications[med.ID]
	if !ok || existing.UserID != med.UserID {
		return internal.ErrNotFound
	}
	existing.Name = med.Name
	existing.Dosage = med.Dosage
	existing.Frequency = med.Frequency
	existing.TimeToTake = med.TimeToTake
	existing.UpdatedAt = med.UpdatedAt

	signalSave(s.saveMedsChan)
	return nil
}

func (s *FileStorage) DeleteMedication(ctx context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.medications[id]
	if !ok || existing.UserID != userID {
		return internal.ErrNotFound
	}
	delete(s.medications, id)

	index := s.userMedIndex[userID]
	for i, m := range index {
		if m.ID == id {
			s.userMedIndex[userID] = append(index[:i], index[i+1:]...)
			break
		}
	}

	signalSave(s.saveMedsChan)
	return nil
}

// --- IntakeLogRepository ---

func (s *FileStorage) UpsertIntakeLog(ctx context.Context, log *internal.IntakeLog) (*internal.IntakeLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := logKey(log.MedicationID, log.UserID, log.DateTaken)
	if existing, ok := s.logKeyIndex[key]; ok {
		// Last write wins: refresh the mark, keep the original row identity.
		existing.TakenAt = log.TakenAt
		existing.PhotoURL = log.PhotoURL
		s.resortUserLogs(log.UserID)
		signalSave(s.saveLogsChan)
		saved := *existing
		return &saved, nil
	}

	l := *log
	s.intakeLogs[l.ID] = &l
	s.logKeyIndex[key] = &l
	s.userLogIndex[l.UserID] = append([]*internal.IntakeLog{&l}, s.userLogIndex[l.UserID]...)
	s.resortUserLogs(l.UserID)

	signalSave(s.saveLogsChan)
	saved := l
	return &saved, nil
}

// resortUserLogs keeps a user's index most-recently-taken first. Caller
// holds mu.
func (s *FileStorage) resortUserLogs(userID string) {
	index := s.userLogIndex[userID]
	sort.Slice(index, func(i, j int) bool {
		return index[i].TakenAt.After(index[j].TakenAt)
	})
}

func (s *FileStorage) ListIntakeLogs(ctx context.Context, userID string) ([]internal.IntakeLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index := s.userLogIndex[userID]
	logs := make([]internal.IntakeLog, len(index))
	for i, l := range index {
		logs[i] = *l
	}
	return logs, nil
}

func (s *FileStorage) DeleteLogsByMedication(ctx context.Context, medicationID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.userLogIndex[userID]
	kept := index[:0]
	for _, l := range index {
		if l.MedicationID == medicationID {
			delete(s.intakeLogs, l.ID)
			delete(s.logKeyIndex, logKey(l.MedicationID, l.UserID, l.DateTaken))
			continue
		}
		kept = append(kept, l)
	}
	s.userLogIndex[userID] = kept

	signalSave(s.saveLogsChan)
	return nil
}

// Close stops the save workers and flushes pending data synchronously.
func (s *FileStorage) Close() error {
	close(s.shutdownChan)

	if err := s.saveMedications(); err != nil {
		return err
	}
	return s.saveIntakeLogs()
}

// --- Compile-time assertions ---
var _ MedicationRepository = (*FileStorage)(nil)
var _ IntakeLogRepository = (*FileStorage)(nil)
