package reconcile

import "time"

// Config holds reconciler settings.
type Config struct {
	// PersistTimeout bounds each background persist+fetch round trip.
	// Zero leaves timeouts to the persistence layer.
	PersistTimeout time.Duration
}

// DefaultConfig returns the default reconciler settings.
func DefaultConfig() Config {
	return Config{}
}
