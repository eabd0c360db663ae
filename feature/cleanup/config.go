package cleanup

// Config holds configuration for the stale image cleanup job.
type Config struct {
	// Enabled toggles the feature and its background scheduler.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// IntervalMinutes is how often the scheduler sweeps all users.
	IntervalMinutes int `mapstructure:"interval_minutes" default:"60"`
	// BatchSize is the number of image records fetched per batch.
	BatchSize int `mapstructure:"batch_size" default:"1000"`
	// YieldEvery is the number of processed records between cooperative yields.
	YieldEvery int `mapstructure:"yield_every" default:"200"`
	// Model is the active detection model version records must match.
	Model int `mapstructure:"model" default:"1"`
}
