package scheduler

// #region mode
// Mode is the scheduler's decision for one step.
type Mode string

const (
	ModeExternal      Mode = "external"
	ModeInternalThink Mode = "internal_think"
	ModeIdle          Mode = "idle"
)

// DriveCuriosity is the only drive the rule consults.
const DriveCuriosity = "curiosity"

// #endregion mode

// #region config
// Config holds the two decision thresholds.
type Config struct {
	ExternalSalienceThreshold float64 `yaml:"external_salience_threshold"`
	InternalThinkThreshold    float64 `yaml:"internal_think_threshold"`
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		ExternalSalienceThreshold: 0.2,
		InternalThinkThreshold:    0.5,
	}
}

// #endregion config

// #region scheduler
// Scheduler chooses between external processing, internal thinking and idling.
type Scheduler struct {
	config Config
}

// New creates a scheduler with the given thresholds.
func New(config Config) *Scheduler {
	return &Scheduler{config: config}
}

// Config returns the thresholds in use.
func (s *Scheduler) Config() Config {
	return s.config
}

// Decide evaluates the rules in order; both comparisons are inclusive.
// A missing curiosity drive counts as 0.
func (s *Scheduler) Decide(externalSalience float64, drives map[string]float64) Mode {
	if externalSalience >= s.config.ExternalSalienceThreshold {
		return ModeExternal
	}
	if drives[DriveCuriosity] >= s.config.InternalThinkThreshold {
		return ModeInternalThink
	}
	return ModeIdle
}

// #endregion scheduler
