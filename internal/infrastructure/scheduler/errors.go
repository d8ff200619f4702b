package scheduler

import "errors"

var (
	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrSweeperRequired is returned when a reaper is built without a sweeper
	ErrSweeperRequired = errors.New("application sweeper is required")
)
