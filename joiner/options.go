package joiner

// config collects the construction-time settings.
type config struct {
	stableIDs   bool
	autoRefresh bool
}

func defaultConfig() config {
	return config{
		stableIDs:   true,
		autoRefresh: true,
	}
}

// Option configures a Joiner at construction.
type Option func(*config)

// WithStableIDs toggles stable item identities. When disabled, ItemID
// returns ErrStableIDsDisabled instead of delegating to the owning
// source. Enabled by default.
func WithStableIDs(enabled bool) Option {
	return func(c *config) {
		c.stableIDs = enabled
	}
}

// WithAutoRefresh toggles the automatic rebuild on source change
// signals. When disabled the joiner never subscribes to its sources and
// the host drives every rebuild through Refresh. Enabled by default.
func WithAutoRefresh(enabled bool) Option {
	return func(c *config) {
		c.autoRefresh = enabled
	}
}
