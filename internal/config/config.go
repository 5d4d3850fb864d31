// Package config holds the runtime configuration of the diagnostics server.
//
// Configuration is read once from the environment at startup and passed
// explicitly to everything that needs a directory or a worker count.
//
// Environment variables:
//
//	SEGDIAG_TRAIN_DIR   directory of training images (<id>.jpg)
//	SEGDIAG_OUTPUT_DIR  directory for rendered figures
//	SEGDIAG_LOG_DIR     directory for the log-likelihood run log
//	SEGDIAG_LOG_LEVEL   "debug" enables verbose logging
//	SEGDIAG_WORKERS     number of goroutines for pointwise diagnostics
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
)

// Environment variable names.
const (
	EnvTrainDir  = "SEGDIAG_TRAIN_DIR"
	EnvOutputDir = "SEGDIAG_OUTPUT_DIR"
	EnvLogDir    = "SEGDIAG_LOG_DIR"
	EnvLogLevel  = "SEGDIAG_LOG_LEVEL"
	EnvWorkers   = "SEGDIAG_WORKERS"
)

// Defaults used when a variable is unset.
const (
	DefaultTrainDir  = "data/images/train"
	DefaultOutputDir = "tmp/img_result"
	DefaultLogDir    = "tmp/logs"
	DefaultLogLevel  = "info"
)

// Config is the server configuration.
type Config struct {
	TrainDir  string
	OutputDir string
	LogDir    string
	LogLevel  string
	Workers   int
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	return Config{
		TrainDir:  DefaultTrainDir,
		OutputDir: DefaultOutputDir,
		LogDir:    DefaultLogDir,
		LogLevel:  DefaultLogLevel,
		Workers:   runtime.NumCPU(),
	}
}

// FromEnv reads the configuration from the process environment.
func FromEnv() (Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if v, ok := lookup(EnvTrainDir); ok {
		cfg.TrainDir = v
	}
	if v, ok := lookup(EnvOutputDir); ok {
		cfg.OutputDir = v
	}
	if v, ok := lookup(EnvLogDir); ok {
		cfg.LogDir = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := lookup(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s %q: %w", EnvWorkers, v, err)
		}
		cfg.Workers = n
	}
	return cfg, cfg.Validate()
}

// Debug reports whether debug logging is enabled.
func (c Config) Debug() bool {
	return c.LogLevel == "debug"
}

// Validate checks that every directory is set and Workers is positive.
func (c Config) Validate() error {
	var errs []error
	if c.TrainDir == "" {
		errs = append(errs, errors.New("train directory is empty"))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output directory is empty"))
	}
	if c.LogDir == "" {
		errs = append(errs, errors.New("log directory is empty"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	return errors.Join(errs...)
}
