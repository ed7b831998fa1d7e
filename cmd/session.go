package cmd

import (
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/sentrypath/internal/catalog"
	"github.com/abhisek/sentrypath/internal/config"
	"github.com/abhisek/sentrypath/internal/logging"
	"github.com/abhisek/sentrypath/internal/reconcile"
	"github.com/abhisek/sentrypath/internal/redisstore"
	"github.com/abhisek/sentrypath/internal/store"
)

// session is everything a command needs for one learner.
type session struct {
	cfg *config.Config
	log *zap.Logger
	cat *catalog.Catalog
	rec *reconcile.Reconciler

	st    *store.Store     // nil when local-only or on Redis
	redis *redisstore.Repo // nil unless redis.addr is set

	mu      sync.Mutex
	settled []reconcile.Settled
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if v, _ := cmd.Flags().GetString("user"); v != "" {
		cfg.UserID = v
	}
	if v, _ := cmd.Flags().GetString("catalog"); v != "" {
		cfg.CatalogPath = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Logging.Level = v
	}
	return cfg, cfg.Validate()
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.CatalogPath == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return cat, nil
}

// openSession loads config, catalog and storage and reads the learner's
// record. Without a user ID the session is local-only.
func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Mode, cfg.Logging.File)
	if err != nil {
		return nil, err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, log: log, cat: cat}
	opts := []reconcile.Option{
		reconcile.WithLogger(log),
		reconcile.WithConfig(reconcile.Config{PersistTimeout: cfg.PersistTimeout()}),
		reconcile.WithOnSettle(s.recordSettled),
	}

	if !cfg.Authenticated() {
		log.Debug("no user configured; running local-only")
		s.rec = reconcile.New(cat, nil, opts...)
		return s, nil
	}

	persister, err := s.openPersister(cmd)
	if err != nil {
		return nil, err
	}
	s.rec = reconcile.New(cat, persister, opts...)
	if err := s.rec.Load(cmd.Context()); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) openPersister(cmd *cobra.Command) (*store.Persister, error) {
	popts := []store.PersisterOption{store.WithLogger(s.log)}

	if s.cfg.Redis.Addr != "" {
		repo, err := redisstore.Open(cmd.Context(), redisstore.Options{
			Addr:     s.cfg.Redis.Addr,
			Password: s.cfg.Redis.Password,
			DB:       s.cfg.Redis.DB,
			Prefix:   s.cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis: %w", err)
		}
		s.redis = repo
		return store.NewPersister(repo, s.cat, s.cfg.UserID, popts...), nil
	}

	dbPath, err := resolveDBPath(cmd, s.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	s.st = st
	popts = append(popts, store.WithEvents(st.EventRepo()))
	return store.NewPersister(st.ProgressRepo(), s.cat, s.cfg.UserID, popts...), nil
}

func (s *session) recordSettled(r reconcile.Settled) {
	s.mu.Lock()
	s.settled = append(s.settled, r)
	s.mu.Unlock()
}

// sync waits for background persistence and reports reverted changes to w.
// It returns false if any change was not saved.
func (s *session) sync(w io.Writer) bool {
	s.rec.Wait()

	s.mu.Lock()
	settled := s.settled
	s.settled = nil
	s.mu.Unlock()

	ok := true
	for _, r := range settled {
		if r.Reverted() {
			ok = false
			fmt.Fprintf(w, "Could not save %s: %v\nYour progress was restored from the store.\n", r.Op, r.PersistErr)
		}
	}
	if !s.rec.Authenticated() {
		fmt.Fprintln(w, "(local only: set --user or SENTRYPATH_USER to keep this progress)")
	}
	return ok
}

// Close waits for background work and releases storage.
func (s *session) Close() {
	if s.rec != nil {
		s.rec.Wait()
	}
	if s.st != nil {
		s.st.Close()
	}
	if s.redis != nil {
		s.redis.Close()
	}
	_ = s.log.Sync()
}
