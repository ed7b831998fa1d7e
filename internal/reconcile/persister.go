package reconcile

import (
	"context"

	"github.com/abhisek/sentrypath/internal/catalog"
	"github.com/abhisek/sentrypath/internal/progress"
)

// Persister is the persistence collaborator for one signed-in user.
// Every call is all-or-nothing.
type Persister interface {
	// FetchProgress returns the canonical record.
	FetchProgress(ctx context.Context) (progress.UserProgress, error)

	// PersistRoleChange stores a role selection and the features the
	// learner already knows.
	PersistRoleChange(ctx context.Context, role catalog.Role, selected []string) error

	// PersistProgressUpdate stores a partial update.
	PersistProgressUpdate(ctx context.Context, u progress.Update) error

	// PersistModuleCompletion marks a module completed.
	PersistModuleCompletion(ctx context.Context, moduleID string) error

	// PersistReset replaces the record with defaults.
	PersistReset(ctx context.Context) error
}
