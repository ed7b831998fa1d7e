package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/sentrypath/internal/catalog"
	"github.com/abhisek/sentrypath/internal/progress"
)

// ErrRejected is returned when the store refuses a mutation. The record is
// left unchanged.
var ErrRejected = errors.New("mutation rejected")

// Persister is the canonical writer for one user's record. It implements
// reconcile.Persister over any ProgressRepo.
//
// Each mutation reads the record, applies the change and writes it back
// under a mutex, so calls from one process never interleave. Accepted
// mutations are appended to the event log when one is configured.
type Persister struct {
	repo   ProgressRepo
	events EventRepo
	cat    *catalog.Catalog
	userID string
	log    *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

// PersisterOption configures a Persister.
type PersisterOption func(*Persister)

// WithEvents records accepted mutations in events.
func WithEvents(events EventRepo) PersisterOption {
	return func(p *Persister) { p.events = events }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) PersisterOption {
	return func(p *Persister) {
		if l != nil {
			p.log = l
		}
	}
}

// WithClock overrides time.Now for LastActiveDate stamps.
func WithClock(now func() time.Time) PersisterOption {
	return func(p *Persister) { p.now = now }
}

// NewPersister returns a Persister for userID.
func NewPersister(repo ProgressRepo, cat *catalog.Catalog, userID string, opts ...PersisterOption) *Persister {
	p := &Persister{
		repo:   repo,
		cat:    cat,
		userID: userID,
		log:    zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With(zap.String("user_id", userID))
	return p
}

// FetchProgress returns the canonical record, creating the default one on
// first use.
func (p *Persister) FetchProgress(ctx context.Context) (progress.UserProgress, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadLocked(ctx)
}

func (p *Persister) loadLocked(ctx context.Context) (progress.UserProgress, error) {
	rec, err := p.repo.Get(ctx, p.userID)
	if err != nil {
		return progress.UserProgress{}, err
	}
	if rec != nil {
		return *rec, nil
	}

	def := progress.Defaults()
	if err := p.repo.Put(ctx, p.userID, def); err != nil {
		return progress.UserProgress{}, fmt.Errorf("create default progress: %w", err)
	}
	p.log.Info("created progress record")
	return def, nil
}

// PersistRoleChange stores a role selection. Roles the catalog does not
// define are rejected.
func (p *Persister) PersistRoleChange(ctx context.Context, role catalog.Role, selected []string) error {
	if !p.cat.IsRole(role) {
		return fmt.Errorf("%w: %w: %q", ErrRejected, catalog.ErrUnknownRole, role)
	}
	return p.write(ctx, "select_role", map[string]any{"role": role, "selected": selected},
		func(cur progress.UserProgress, now time.Time) progress.UserProgress {
			return progress.ApplyRoleChange(cur, p.cat, role, selected, now)
		})
}

// PersistProgressUpdate stores a partial update. A negative CurrentStep is
// clamped to 0; unknown roles or features and other invalid values are
// rejected.
func (p *Persister) PersistProgressUpdate(ctx context.Context, u progress.Update) error {
	if u.CurrentStep != nil && *u.CurrentStep < 0 {
		zero := 0
		u.CurrentStep = &zero
	}
	if err := p.checkUpdate(u); err != nil {
		return fmt.Errorf("%w: %w", ErrRejected, err)
	}
	return p.write(ctx, "update_progress", u,
		func(cur progress.UserProgress, now time.Time) progress.UserProgress {
			return progress.ApplyUpdate(cur, u, now)
		})
}

func (p *Persister) checkUpdate(u progress.Update) error {
	if err := progress.Validate(u); err != nil {
		return err
	}
	if u.Role != nil && *u.Role != "" && !p.cat.IsRole(*u.Role) {
		return fmt.Errorf("%w: %q", catalog.ErrUnknownRole, *u.Role)
	}
	for _, f := range u.CompletedFeatures {
		if !p.cat.IsFeature(f) {
			return fmt.Errorf("unknown feature %q", f)
		}
	}
	return nil
}

// PersistModuleCompletion marks a module completed.
func (p *Persister) PersistModuleCompletion(ctx context.Context, moduleID string) error {
	if moduleID == "" {
		return fmt.Errorf("%w: empty module ID", ErrRejected)
	}
	return p.write(ctx, "complete_module", map[string]any{"module": moduleID},
		func(cur progress.UserProgress, now time.Time) progress.UserProgress {
			return progress.ApplyModuleCompletion(cur, p.cat, moduleID, now)
		})
}

// PersistReset replaces the record with defaults.
func (p *Persister) PersistReset(ctx context.Context) error {
	return p.write(ctx, "reset_progress", nil,
		func(_ progress.UserProgress, now time.Time) progress.UserProgress {
			return progress.Reset(now)
		})
}

func (p *Persister) write(ctx context.Context, op string, detail any, apply func(progress.UserProgress, time.Time) progress.UserProgress) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cur, err := p.loadLocked(ctx)
	if err != nil {
		return err
	}
	now := p.now()
	if err := p.repo.Put(ctx, p.userID, apply(cur, now)); err != nil {
		return err
	}
	p.record(ctx, op, detail, now)
	return nil
}

// record appends an event. The mutation is already stored, so a failed
// append is logged and not returned.
func (p *Persister) record(ctx context.Context, op string, detail any, now time.Time) {
	if p.events == nil {
		return
	}
	var b []byte
	if detail != nil {
		var err error
		if b, err = json.Marshal(detail); err != nil {
			p.log.Warn("marshal event detail", zap.String("op", op), zap.Error(err))
		}
	}
	e := &ProgressEvent{Timestamp: now, UserID: p.userID, Op: op, Detail: string(b)}
	if err := p.events.Append(ctx, e); err != nil {
		p.log.Warn("append progress event", zap.String("op", op), zap.Error(err))
		return
	}
	p.log.Debug("progress event", zap.String("op", op), zap.Int64("sequence", e.Sequence))
}
