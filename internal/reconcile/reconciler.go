package reconcile

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/abhisek/sentrypath/internal/catalog"
	"github.com/abhisek/sentrypath/internal/learnpath"
	"github.com/abhisek/sentrypath/internal/progress"
)

// ErrEmptyModuleID is returned by CompleteModule for a blank module ID.
var ErrEmptyModuleID = errors.New("module ID is required")

// Reconciler owns one learner's progress record. It keeps two slots: the
// authoritative record last confirmed by the persistence layer, and an
// optimistic overlay holding the result of mutations that are still being
// persisted. Reads see the overlay when there is one.
//
// Without a Persister every mutation applies directly to the authoritative
// record. With one, a mutation updates the overlay, returns, and persists in
// the background; when the round trip finishes the record fetched from the
// persistence layer replaces the authoritative slot, whether the persist
// call succeeded or failed. A failed persist therefore shows up as the
// optimistic change undoing itself.
//
// Round trips are not serialized. Two rapid mutations may race at the
// persistence layer, and whichever round trip settles last decides the
// authoritative record.
type Reconciler struct {
	cat       *catalog.Catalog
	persister Persister
	cfg       Config
	log       *zap.Logger
	now       func() time.Time
	onChange  func(progress.UserProgress)
	onSettle  func(Settled)

	mu            sync.Mutex
	authoritative progress.UserProgress
	overlay       *progress.UserProgress
	issued        uint64 // generation of the newest mutation started

	wg      sync.WaitGroup
	pending int
	loads   singleflight.Group
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.log = l
		}
	}
}

// WithConfig sets reconciler settings.
func WithConfig(cfg Config) Option {
	return func(r *Reconciler) { r.cfg = cfg }
}

// WithClock overrides time.Now for LastActiveDate stamps.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// WithOnChange registers a callback invoked with the visible record after
// every state change. It runs outside the reconciler's lock, possibly on a
// background goroutine.
func WithOnChange(fn func(progress.UserProgress)) Option {
	return func(r *Reconciler) { r.onChange = fn }
}

// Settled describes a finished background round trip.
type Settled struct {
	MutationID string
	Op         string
	PersistErr error
	FetchErr   error
}

// Reverted reports whether the optimistic change was not persisted.
func (s Settled) Reverted() bool {
	return s.PersistErr != nil
}

// WithOnSettle registers a callback invoked after each background round trip
// settles. It runs on the background goroutine, before Wait returns.
func WithOnSettle(fn func(Settled)) Option {
	return func(r *Reconciler) { r.onSettle = fn }
}

// New creates a Reconciler. A nil persister means the learner has no
// persistence identity and changes stay in memory.
func New(cat *catalog.Catalog, persister Persister, opts ...Option) *Reconciler {
	r := &Reconciler{
		cat:           cat,
		persister:     persister,
		cfg:           DefaultConfig(),
		log:           zap.NewNop(),
		now:           time.Now,
		authoritative: progress.Defaults(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Authenticated reports whether mutations are persisted.
func (r *Reconciler) Authenticated() bool {
	return r.persister != nil
}

// Get returns the record the UI should show: the optimistic overlay when a
// mutation is in flight, the authoritative record otherwise.
func (r *Reconciler) Get() progress.UserProgress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentLocked().Clone()
}

// Authoritative returns the last record confirmed by the persistence layer.
func (r *Reconciler) Authoritative() progress.UserProgress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.authoritative.Clone()
}

// HasOverlay reports whether an optimistic overlay is active.
func (r *Reconciler) HasOverlay() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlay != nil
}

// Pending returns the number of mutations still being persisted.
func (r *Reconciler) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

// Wait blocks until every background persistence task has finished.
func (r *Reconciler) Wait() {
	r.wg.Wait()
}

func (r *Reconciler) currentLocked() progress.UserProgress {
	if r.overlay != nil {
		return *r.overlay
	}
	return r.authoritative
}

// Load reads the canonical record into the authoritative slot. Concurrent
// calls share one fetch. Without a persister it is a no-op.
func (r *Reconciler) Load(ctx context.Context) error {
	if r.persister == nil {
		return nil
	}
	v, err, _ := r.loads.Do("fetch", func() (any, error) {
		return r.persister.FetchProgress(ctx)
	})
	if err != nil {
		return fmt.Errorf("fetch progress: %w", err)
	}
	p := v.(progress.UserProgress).Normalize()

	r.mu.Lock()
	r.authoritative = p
	r.mu.Unlock()
	r.notify()
	return nil
}

// UpdateProgress applies a partial update. It returns an error only when the
// update breaks a field rule, in which case nothing changes.
func (r *Reconciler) UpdateProgress(ctx context.Context, u progress.Update) error {
	if err := progress.Validate(u); err != nil {
		return err
	}
	if u.Role != nil && *u.Role != "" && !r.cat.IsRole(*u.Role) {
		return fmt.Errorf("%w: %q", catalog.ErrUnknownRole, *u.Role)
	}
	u = cloneUpdate(u)
	r.mutate(ctx, "update_progress",
		func(p progress.UserProgress, now time.Time) progress.UserProgress {
			return progress.ApplyUpdate(p, u, now)
		},
		func(ctx context.Context) error {
			return r.persister.PersistProgressUpdate(ctx, u)
		})
	return nil
}

// SelectRole sets the learner's role and credits the features they already
// know. It returns an error only for a role the catalog does not define.
func (r *Reconciler) SelectRole(ctx context.Context, role catalog.Role, selected []string) error {
	if !r.cat.IsRole(role) {
		return fmt.Errorf("%w: %q", catalog.ErrUnknownRole, role)
	}
	selected = slices.Clone(selected)
	r.mutate(ctx, "select_role",
		func(p progress.UserProgress, now time.Time) progress.UserProgress {
			return progress.ApplyRoleChange(p, r.cat, role, selected, now)
		},
		func(ctx context.Context) error {
			return r.persister.PersistRoleChange(ctx, role, selected)
		})
	return nil
}

// CompleteModule marks a module completed. Completing it again is not an
// error and goes through the same persist cycle.
func (r *Reconciler) CompleteModule(ctx context.Context, moduleID string) error {
	if moduleID == "" {
		return ErrEmptyModuleID
	}
	r.mutate(ctx, "complete_module",
		func(p progress.UserProgress, now time.Time) progress.UserProgress {
			return progress.ApplyModuleCompletion(p, r.cat, moduleID, now)
		},
		func(ctx context.Context) error {
			return r.persister.PersistModuleCompletion(ctx, moduleID)
		})
	return nil
}

// ResetProgress returns the record to its defaults.
func (r *Reconciler) ResetProgress(ctx context.Context) {
	r.mutate(ctx, "reset_progress",
		func(_ progress.UserProgress, now time.Time) progress.UserProgress {
			return progress.Reset(now)
		},
		func(ctx context.Context) error {
			return r.persister.PersistReset(ctx)
		})
}

// LearningPath resolves the learner's path from the visible record.
func (r *Reconciler) LearningPath() *learnpath.Path {
	p := r.Get()
	return learnpath.Resolve(r.cat, p.Role, p.CompletedSteps)
}

// CurrentStep returns the step the learner should be working on, or nil.
func (r *Reconciler) CurrentStep() *learnpath.Step {
	return r.LearningPath().CurrentStep()
}

// NextRecommendation returns what the learner should do next, or nil.
func (r *Reconciler) NextRecommendation() *learnpath.Recommendation {
	return r.LearningPath().NextRecommendation()
}

type applyFunc func(progress.UserProgress, time.Time) progress.UserProgress

type persistFunc func(context.Context) error

// mutate applies a change optimistically and, when signed in, starts the
// background persist cycle. The overlay builds on whatever is visible now, so
// rapid mutations stack.
func (r *Reconciler) mutate(ctx context.Context, op string, apply applyFunc, persist persistFunc) {
	now := r.now()

	r.mu.Lock()
	next := apply(r.currentLocked(), now)
	if r.persister == nil {
		r.authoritative = next
		r.mu.Unlock()
		r.notify()
		return
	}
	r.issued++
	gen := r.issued
	r.overlay = &next
	r.pending++
	r.wg.Add(1)
	r.mu.Unlock()
	r.notify()

	m := mutation{
		id:    uuid.NewString(),
		op:    op,
		gen:   gen,
		guess: next.Clone(),
	}
	go r.commit(context.WithoutCancel(ctx), m, persist)
}

type mutation struct {
	id    string
	op    string
	gen   uint64
	guess progress.UserProgress
}

func (r *Reconciler) commit(ctx context.Context, m mutation, persist persistFunc) {
	defer r.wg.Done()

	log := r.log.With(
		zap.String("mutation_id", m.id),
		zap.String("op", m.op),
		zap.Uint64("generation", m.gen),
	)

	if r.cfg.PersistTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.PersistTimeout)
		defer cancel()
	}

	persistErr := persist(ctx)
	if persistErr != nil {
		log.Warn("persist failed; reverting optimistic update", zap.Error(persistErr))
	}

	fetched, fetchErr := r.persister.FetchProgress(ctx)
	if fetchErr != nil {
		log.Error("fetch after persist failed", zap.Error(fetchErr), zap.Bool("persisted", persistErr == nil))
	}

	r.settle(m, persistErr, fetched, fetchErr, log)
}

// settle replaces the authoritative slot with the outcome of mutation m.
//
// Each round trip replaces the authoritative record with what it fetched;
// nothing is merged. The overlay is only dropped when m is the newest
// mutation, so a newer optimistic change stays visible until its own round
// trip ends.
func (r *Reconciler) settle(m mutation, persistErr error, fetched progress.UserProgress, fetchErr error, log *zap.Logger) {
	r.mu.Lock()
	r.pending--
	newest := m.gen == r.issued

	switch {
	case fetchErr == nil:
		r.authoritative = fetched.Normalize()
	case persistErr == nil && newest:
		// Persisted but unconfirmed: the optimistic record is the best
		// known state.
		r.authoritative = m.guess
	default:
		// Keep the last known-good record.
	}

	if newest {
		r.overlay = nil
	}
	r.mu.Unlock()

	if persistErr == nil && fetchErr == nil {
		log.Debug("reconciled")
	}
	r.notify()
	if r.onSettle != nil {
		r.onSettle(Settled{MutationID: m.id, Op: m.op, PersistErr: persistErr, FetchErr: fetchErr})
	}
}

func (r *Reconciler) notify() {
	if r.onChange == nil {
		return
	}
	r.onChange(r.Get())
}

func cloneUpdate(u progress.Update) progress.Update {
	u.CompletedSteps = slices.Clone(u.CompletedSteps)
	u.CompletedModules = slices.Clone(u.CompletedModules)
	u.CompletedFeatures = slices.Clone(u.CompletedFeatures)
	return u
}
