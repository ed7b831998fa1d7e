package reconcile

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/abhisek/sentrypath/internal/catalog"
	"github.com/abhisek/sentrypath/internal/progress"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

var errBackend = errors.New("backend unavailable")

// fakePersister keeps a canonical record in memory and applies writes with
// the same functions the reconciler uses.
type fakePersister struct {
	cat *catalog.Catalog

	mu         sync.Mutex
	record     progress.UserProgress
	persistErr error
	fetchErr   error
	gates      map[string]chan struct{} // module ID -> gate
	gate       chan struct{}            // blocks every persist call when set
	order      []string                 // keys in the order writes were attempted

	persists atomic.Int32
	fetches  atomic.Int32
}

func newFakePersister() *fakePersister {
	return &fakePersister{
		cat:    catalog.Default(),
		record: progress.Defaults(),
		gates:  make(map[string]chan struct{}),
	}
}

func (f *fakePersister) wait(ctx context.Context, key string) error {
	f.mu.Lock()
	g := f.gate
	if mg, ok := f.gates[key]; ok {
		g = mg
	}
	f.mu.Unlock()
	if g == nil {
		return nil
	}
	select {
	case <-g:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakePersister) write(ctx context.Context, key string, fn func(progress.UserProgress) progress.UserProgress) error {
	f.persists.Add(1)
	if err := f.wait(ctx, key); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.order = append(f.order, key)
	if f.persistErr != nil {
		return f.persistErr
	}
	f.record = fn(f.record)
	return nil
}

func (f *fakePersister) FetchProgress(ctx context.Context) (progress.UserProgress, error) {
	f.fetches.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return progress.UserProgress{}, f.fetchErr
	}
	return f.record.Clone(), nil
}

func (f *fakePersister) PersistRoleChange(ctx context.Context, role catalog.Role, selected []string) error {
	return f.write(ctx, string(role), func(p progress.UserProgress) progress.UserProgress {
		return progress.ApplyRoleChange(p, f.cat, role, selected, testNow)
	})
}

func (f *fakePersister) PersistProgressUpdate(ctx context.Context, u progress.Update) error {
	return f.write(ctx, "update", func(p progress.UserProgress) progress.UserProgress {
		return progress.ApplyUpdate(p, u, testNow)
	})
}

func (f *fakePersister) PersistModuleCompletion(ctx context.Context, moduleID string) error {
	return f.write(ctx, moduleID, func(p progress.UserProgress) progress.UserProgress {
		return progress.ApplyModuleCompletion(p, f.cat, moduleID, testNow)
	})
}

func (f *fakePersister) PersistReset(ctx context.Context) error {
	return f.write(ctx, "reset", func(progress.UserProgress) progress.UserProgress {
		return progress.Reset(testNow)
	})
}

func (f *fakePersister) set(p progress.UserProgress) {
	f.mu.Lock()
	f.record = p
	f.mu.Unlock()
}

func (f *fakePersister) get() progress.UserProgress {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record.Clone()
}

func newTestReconciler(p Persister, opts ...Option) *Reconciler {
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	return New(catalog.Default(), p, opts...)
}

func TestReconciler_LocalMode(t *testing.T) {
	r := newTestReconciler(nil)
	ctx := context.Background()

	assert.False(t, r.Authenticated())
	require.NoError(t, r.Load(ctx))
	require.NoError(t, r.SelectRole(ctx, catalog.RoleBackend, []string{"performance-monitoring"}))
	require.NoError(t, r.CompleteModule(ctx, "tracing"))

	got := r.Get()
	assert.Equal(t, catalog.RoleBackend, got.Role)
	assert.True(t, got.HasModule("tracing"))
	assert.True(t, got.HasModule("performance-monitoring"))
	assert.True(t, got.OnboardingCompleted)
	assert.True(t, got.LastActiveDate.Equal(testNow))
	assert.False(t, r.HasOverlay())
	assert.Zero(t, r.Pending())
	assert.True(t, got.Equal(r.Authoritative()), "local changes go straight to the authoritative slot")
}

func TestReconciler_OptimisticBeforePersist(t *testing.T) {
	fp := newFakePersister()
	fp.gate = make(chan struct{})
	r := newTestReconciler(fp)
	ctx := context.Background()

	require.NoError(t, r.CompleteModule(ctx, "mod-a"))

	assert.True(t, r.Get().HasModule("mod-a"), "change should be visible immediately")
	assert.False(t, r.Authoritative().HasModule("mod-a"), "authoritative slot waits for the round trip")
	assert.True(t, r.HasOverlay())
	assert.Equal(t, 1, r.Pending())

	close(fp.gate)
	r.Wait()

	assert.False(t, r.HasOverlay())
	assert.Zero(t, r.Pending())
	assert.True(t, r.Authoritative().HasModule("mod-a"))
	assert.True(t, r.Get().Equal(fp.get()))
}

func TestReconciler_SuccessReplacesWithFetched(t *testing.T) {
	fp := newFakePersister()
	// The store holds progress the client never saw.
	server := progress.Defaults()
	server.CompletedModules = []string{"from-elsewhere"}
	fp.set(server)

	r := newTestReconciler(fp)
	require.NoError(t, r.CompleteModule(context.Background(), "mod-a"))
	r.Wait()

	got := r.Get()
	assert.Equal(t, []string{"from-elsewhere", "mod-a"}, got.CompletedModules)
	assert.True(t, got.Equal(fp.get()))
}

func TestReconciler_FailureReverts(t *testing.T) {
	fp := newFakePersister()
	fp.persistErr = errBackend
	r := newTestReconciler(fp)
	require.NoError(t, r.Load(context.Background()))
	before := r.Get()

	require.NoError(t, r.CompleteModule(context.Background(), "mod-x"))
	r.Wait()

	got := r.Get()
	assert.False(t, got.HasModule("mod-x"))
	assert.True(t, got.Equal(fp.get()), "state should equal what the store returns after the failure")
	assert.True(t, got.Equal(before))
	assert.False(t, r.HasOverlay())
}

func TestReconciler_FailureRevertsToStoreNotSnapshot(t *testing.T) {
	fp := newFakePersister()
	fp.gate = make(chan struct{})
	r := newTestReconciler(fp)

	require.NoError(t, r.CompleteModule(context.Background(), "mod-x"))

	// Another writer changes the record while ours is in flight, then ours
	// fails.
	other := progress.Defaults()
	other.CompletedFeatures = []catalog.Feature{catalog.FeatureLogging}
	fp.set(other)
	fp.mu.Lock()
	fp.persistErr = errBackend
	fp.mu.Unlock()
	close(fp.gate)
	r.Wait()

	got := r.Get()
	assert.False(t, got.HasModule("mod-x"))
	assert.True(t, got.HasFeature(catalog.FeatureLogging))
}

func TestReconciler_FetchFailureAfterSuccessKeepsGuess(t *testing.T) {
	fp := newFakePersister()
	fp.fetchErr = errBackend
	r := newTestReconciler(fp)

	require.NoError(t, r.CompleteModule(context.Background(), "mod-a"))
	r.Wait()

	assert.True(t, r.Get().HasModule("mod-a"))
	assert.True(t, r.Authoritative().HasModule("mod-a"))
	assert.False(t, r.HasOverlay())
}

func TestReconciler_FetchFailureAfterFailureKeepsLastKnown(t *testing.T) {
	fp := newFakePersister()
	fp.persistErr = errBackend
	fp.fetchErr = errBackend
	r := newTestReconciler(fp)

	require.NoError(t, r.CompleteModule(context.Background(), "mod-a"))
	r.Wait()

	got := r.Get()
	assert.False(t, got.HasModule("mod-a"))
	assert.True(t, got.Equal(progress.Defaults()))
}

func TestReconciler_CompleteModuleIdempotent(t *testing.T) {
	fp := newFakePersister()
	r := newTestReconciler(fp)
	ctx := context.Background()

	require.NoError(t, r.CompleteModule(ctx, "mod-a"))
	require.NoError(t, r.CompleteModule(ctx, "mod-a"))
	r.Wait()

	assert.Equal(t, []string{"mod-a"}, r.Get().CompletedModules)
	assert.EqualValues(t, 2, fp.persists.Load(), "each call still persists")
}

func TestReconciler_CompleteModuleEmptyID(t *testing.T) {
	fp := newFakePersister()
	r := newTestReconciler(fp)

	err := r.CompleteModule(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyModuleID)
	assert.Zero(t, fp.persists.Load())
}

func TestReconciler_CompleteModuleCompletesCoveredStep(t *testing.T) {
	r := newTestReconciler(nil)
	ctx := context.Background()
	require.NoError(t, r.SelectRole(ctx, catalog.RoleBackend, nil))

	assert.Equal(t, "backend-error-tracking", r.CurrentStep().ID)

	require.NoError(t, r.CompleteModule(ctx, "sentry-fundamentals"))
	assert.False(t, r.Get().HasStep("backend-error-tracking"), "one module left")
	require.NoError(t, r.CompleteModule(ctx, "backend-context"))
	assert.True(t, r.Get().HasStep("backend-error-tracking"))
	assert.Equal(t, "backend-performance", r.CurrentStep().ID)
}

func TestReconciler_Reset(t *testing.T) {
	for _, authed := range []bool{false, true} {
		name := "local"
		if authed {
			name = "authenticated"
		}
		t.Run(name, func(t *testing.T) {
			var p Persister
			if authed {
				p = newFakePersister()
			}
			r := newTestReconciler(p)
			ctx := context.Background()

			require.NoError(t, r.SelectRole(ctx, catalog.RoleSRE, []string{"distributed-tracing", "logging"}))
			r.Wait()
			require.NoError(t, r.CompleteModule(ctx, "dashboards"))
			r.Wait()
			r.ResetProgress(ctx)
			r.Wait()

			want := progress.Defaults()
			want.LastActiveDate = testNow
			assert.True(t, r.Get().Equal(want), "got %+v", r.Get())
			assert.Nil(t, r.LearningPath())
		})
	}
}

func TestReconciler_SelectRole(t *testing.T) {
	fp := newFakePersister()
	r := newTestReconciler(fp)
	ctx := context.Background()

	err := r.SelectRole(ctx, "designer", nil)
	assert.ErrorIs(t, err, catalog.ErrUnknownRole)
	assert.Zero(t, fp.persists.Load())

	require.NoError(t, r.SelectRole(ctx, catalog.RoleFrontend, []string{"error-tracking", "performance-monitoring"}))
	r.Wait()

	got := r.Get()
	assert.Equal(t, catalog.RoleFrontend, got.Role)
	assert.True(t, got.HasStep("frontend-error-tracking"))
	assert.True(t, got.HasStep("frontend-performance"))
	assert.True(t, got.HasSeenOnboarding)

	path := r.LearningPath()
	require.NotNil(t, path)
	assert.Equal(t, catalog.RoleFrontend, path.Role)
	rec := r.NextRecommendation()
	require.NotNil(t, rec)
	assert.Equal(t, "frontend-session-replay", rec.StepID)
}

func TestReconciler_UpdateProgress(t *testing.T) {
	fp := newFakePersister()
	r := newTestReconciler(fp)
	ctx := context.Background()

	neg := -1
	err := r.UpdateProgress(ctx, progress.Update{CurrentStep: &neg})
	assert.ErrorIs(t, err, progress.ErrInvalidUpdate)

	bad := catalog.Role("designer")
	err = r.UpdateProgress(ctx, progress.Update{Role: &bad})
	assert.ErrorIs(t, err, catalog.ErrUnknownRole)
	assert.Zero(t, fp.persists.Load())

	ct := progress.ContentHandsOn
	seen := true
	require.NoError(t, r.UpdateProgress(ctx, progress.Update{
		PreferredContentType: &ct,
		HasSeenOnboarding:    &seen,
		CompletedModules:     []string{"m2", "m1"},
	}))
	r.Wait()

	got := r.Get()
	assert.Equal(t, progress.ContentHandsOn, got.PreferredContentType)
	assert.True(t, got.HasSeenOnboarding)
	assert.Equal(t, []string{"m1", "m2"}, got.CompletedModules)
	assert.True(t, got.Equal(fp.get()))
}

func TestReconciler_UpdateClearsRole(t *testing.T) {
	r := newTestReconciler(nil)
	ctx := context.Background()
	require.NoError(t, r.SelectRole(ctx, catalog.RoleBackend, nil))

	none := catalog.Role("")
	require.NoError(t, r.UpdateProgress(ctx, progress.Update{Role: &none}))
	assert.False(t, r.Get().HasRole())
	assert.Nil(t, r.CurrentStep())
	assert.Nil(t, r.NextRecommendation())
}

// settleCounter returns an OnChange option and a channel receiving one value
// per notification.
func settleCounter() (Option, <-chan struct{}) {
	ch := make(chan struct{}, 16)
	return WithOnChange(func(progress.UserProgress) { ch <- struct{}{} }), ch
}

func TestReconciler_RapidMutationsStack(t *testing.T) {
	fp := newFakePersister()
	gateA := make(chan struct{})
	gateB := make(chan struct{})
	fp.gates["mod-a"] = gateA
	fp.gates["mod-b"] = gateB
	onChange, changed := settleCounter()
	r := newTestReconciler(fp, onChange)
	ctx := context.Background()

	require.NoError(t, r.CompleteModule(ctx, "mod-a"))
	require.NoError(t, r.CompleteModule(ctx, "mod-b"))
	<-changed
	<-changed

	assert.Equal(t, []string{"mod-a", "mod-b"}, r.Get().CompletedModules)
	assert.Equal(t, 2, r.Pending())

	close(gateA)
	<-changed
	close(gateB)
	r.Wait()

	assert.Equal(t, []string{"mod-a", "mod-b"}, r.Get().CompletedModules)
	assert.False(t, r.HasOverlay())
}

func TestReconciler_LaterSettleWins(t *testing.T) {
	fp := newFakePersister()
	gateA := make(chan struct{})
	gateB := make(chan struct{})
	fp.gates["mod-a"] = gateA
	fp.gates["mod-b"] = gateB
	onChange, changed := settleCounter()
	r := newTestReconciler(fp, onChange)
	ctx := context.Background()

	require.NoError(t, r.CompleteModule(ctx, "mod-a"))
	require.NoError(t, r.CompleteModule(ctx, "mod-b"))
	<-changed
	<-changed

	// The newer mutation reaches the store first and drops the overlay.
	close(gateB)
	<-changed
	assert.False(t, r.HasOverlay())
	assert.Equal(t, []string{"mod-b"}, r.Get().CompletedModules)

	// The older one lands afterwards and its fetch replaces the record.
	close(gateA)
	r.Wait()
	assert.Equal(t, []string{"mod-a", "mod-b"}, r.Get().CompletedModules)

	fp.mu.Lock()
	order := append([]string(nil), fp.order...)
	fp.mu.Unlock()
	assert.Equal(t, []string{"mod-b", "mod-a"}, order)
}

func TestReconciler_OlderSettleKeepsNewerOverlay(t *testing.T) {
	fp := newFakePersister()
	gateA := make(chan struct{})
	gateB := make(chan struct{})
	fp.gates["mod-a"] = gateA
	fp.gates["mod-b"] = gateB
	onChange, changed := settleCounter()
	r := newTestReconciler(fp, onChange)
	ctx := context.Background()

	require.NoError(t, r.CompleteModule(ctx, "mod-a"))
	require.NoError(t, r.CompleteModule(ctx, "mod-b"))
	<-changed
	<-changed

	close(gateA)
	<-changed

	assert.True(t, r.HasOverlay(), "newer mutation still in flight")
	assert.Equal(t, []string{"mod-a", "mod-b"}, r.Get().CompletedModules)
	assert.Equal(t, []string{"mod-a"}, r.Authoritative().CompletedModules)

	close(gateB)
	r.Wait()
	assert.False(t, r.HasOverlay())
	assert.Equal(t, []string{"mod-a", "mod-b"}, r.Authoritative().CompletedModules)
}

func TestReconciler_LoadSharesFetch(t *testing.T) {
	fp := newFakePersister()
	server := progress.Defaults()
	server.Role = catalog.RoleAIML
	fp.set(server)
	r := newTestReconciler(fp)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Load(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, catalog.RoleAIML, r.Get().Role)
	assert.LessOrEqual(t, fp.fetches.Load(), int32(8))
}

func TestReconciler_LoadError(t *testing.T) {
	fp := newFakePersister()
	fp.fetchErr = errBackend
	r := newTestReconciler(fp)

	err := r.Load(context.Background())
	assert.ErrorIs(t, err, errBackend)
	assert.True(t, r.Get().Equal(progress.Defaults()))
}

func TestReconciler_OnChange(t *testing.T) {
	var mu sync.Mutex
	var seen []progress.UserProgress
	r := newTestReconciler(nil, WithOnChange(func(p progress.UserProgress) {
		mu.Lock()
		seen = append(seen, p)
		mu.Unlock()
	}))

	require.NoError(t, r.CompleteModule(context.Background(), "mod-a"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	assert.True(t, seen[0].HasModule("mod-a"))
}

func TestReconciler_PersistTimeout(t *testing.T) {
	fp := newFakePersister()
	fp.gate = make(chan struct{}) // never released
	r := newTestReconciler(fp, WithConfig(Config{PersistTimeout: 20 * time.Millisecond}))

	require.NoError(t, r.CompleteModule(context.Background(), "mod-a"))
	r.Wait()

	assert.False(t, r.Get().HasModule("mod-a"), "timed-out persist should revert")
	assert.False(t, r.HasOverlay())
}

func TestReconciler_CallerCancelDoesNotAbortPersist(t *testing.T) {
	fp := newFakePersister()
	r := newTestReconciler(fp)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, r.CompleteModule(ctx, "mod-a"))
	cancel()
	r.Wait()

	assert.True(t, fp.get().HasModule("mod-a"))
}

func TestReconciler_OnSettle(t *testing.T) {
	fp := newFakePersister()
	var mu sync.Mutex
	var got []Settled
	r := newTestReconciler(fp, WithOnSettle(func(s Settled) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	}))
	ctx := context.Background()

	require.NoError(t, r.CompleteModule(ctx, "mod-a"))
	r.Wait()
	fp.mu.Lock()
	fp.persistErr = errBackend
	fp.mu.Unlock()
	r.ResetProgress(ctx)
	r.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.Equal(t, "complete_module", got[0].Op)
	assert.False(t, got[0].Reverted())
	assert.NotEmpty(t, got[0].MutationID)
	assert.Equal(t, "reset_progress", got[1].Op)
	assert.True(t, got[1].Reverted())
	assert.ErrorIs(t, got[1].PersistErr, errBackend)
	assert.NotEqual(t, got[0].MutationID, got[1].MutationID)
}
