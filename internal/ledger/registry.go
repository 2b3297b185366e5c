package ledger

import (
	"sync"

	"github.com/yourname/medtracker/internal"
	"github.com/yourname/medtracker/internal/session"
	"github.com/yourname/medtracker/internal/storage"
)

// Registry hands out one Ledger per user so cached collections survive
// across requests. Each request rebinds its session onto the user's ledger.
type Registry struct {
	mu      sync.Mutex
	ledgers map[string]*Ledger
	meds    storage.MedicationRepository
	logs    storage.IntakeLogRepository
	logger  internal.Logger
}

func NewRegistry(meds storage.MedicationRepository, logs storage.IntakeLogRepository, logger internal.Logger) *Registry {
	return &Registry{
		ledgers: make(map[string]*Ledger),
		meds:    meds,
		logs:    logs,
		logger:  logger,
	}
}

// For resolves the session's user and returns their ledger, creating it on
// first use. Fails with ErrUnauthenticated when the session has no user.
func (r *Registry) For(sess *session.Session) (*Ledger, error) {
	u, err := sess.User()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	led, ok := r.ledgers[u.ID]
	if !ok {
		led = New(sess, r.meds, r.logs, r.logger)
		r.ledgers[u.ID] = led
	} else {
		led.Bind(sess)
	}
	return led, nil
}
