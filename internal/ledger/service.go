package ledger

import (
	"context"
	"errors"
	"log"

	"finance-tracker/internal/mirror"
	"finance-tracker/internal/models"
)

// SyncReport is the outcome of the sync that follows a mutation. A failed
// sync never undoes the local change.
type SyncReport struct {
	Result *mirror.Result `json:"result,omitempty"`
	Err    error          `json:"-"`
}

// OK reports a completed upload.
func (r *SyncReport) OK() bool {
	return r != nil && r.Err == nil
}

// Skipped reports that mirroring is turned off.
func (r *SyncReport) Skipped() bool {
	return r != nil && errors.Is(r.Err, mirror.ErrDisabled)
}

// Message is a short human readable summary for API responses and the CLI.
func (r *SyncReport) Message() string {
	switch {
	case r == nil:
		return ""
	case r.Skipped():
		return "mirror disabled"
	case r.Err != nil:
		return "sync failed: " + r.Err.Error()
	default:
		return "synced " + r.Result.Path + " at " + r.Result.Revision
	}
}

// Service composes each mutation with a sync of the backing file. The
// local commit always comes first; sync runs after it unconditionally.
type Service struct {
	store  *Store
	mirror mirror.Mirror
}

func NewService(store *Store, m mirror.Mirror) *Service {
	if m == nil {
		m = mirror.Disabled{}
	}
	return &Service{store: store, mirror: m}
}

// Store exposes the read side.
func (s *Service) Store() *Store {
	return s.store
}

func (s *Service) AddTransaction(ctx context.Context, in NewTransaction) (*models.Transaction, *SyncReport, error) {
	tx, err := s.store.InsertTransaction(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	return tx, s.Sync(ctx), nil
}

func (s *Service) DeleteTransactions(ctx context.Context, ids []uint, scope, actor *uint) (int64, *SyncReport, error) {
	n, err := s.store.DeleteTransactions(ctx, ids, scope, actor)
	if err != nil {
		return 0, nil, err
	}
	return n, s.Sync(ctx), nil
}

func (s *Service) RegisterAccount(ctx context.Context, username, password string, admin bool) (*models.Account, *SyncReport, error) {
	acc, err := s.store.RegisterAccount(ctx, username, password, admin)
	if err != nil {
		return nil, nil, err
	}
	return acc, s.Sync(ctx), nil
}

// Sync uploads the current backing file. Failures are logged and
// reported, never returned as errors.
func (s *Service) Sync(ctx context.Context) *SyncReport {
	res, err := s.mirror.Sync(ctx)
	switch {
	case errors.Is(err, mirror.ErrDisabled):
	case errors.Is(err, mirror.ErrConflict):
		log.Printf("[sync] conflict, remote copy changed since it was read: %v", err)
	case err != nil:
		log.Printf("[sync] failed: %v", err)
	default:
		log.Printf("[sync] %s -> %s (%d bytes, %s)", res.Path, res.Revision, res.Bytes, res.Duration)
	}
	return &SyncReport{Result: res, Err: err}
}
