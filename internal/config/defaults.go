package config

import "runtime"

// Pool size resolution chain (highest priority first):
//   1. CLI flags (--pool-size, -p)
//   2. Environment variable (TESTORCH_POOL_SIZE)
//   3. Hardware estimation (this file)

// ApplyAdaptiveDefaults fills the pool size from the hardware when it was
// left at zero. User-specified values are preserved.
func ApplyAdaptiveDefaults(cfg AppConfig) AppConfig {
	if cfg.PoolSize == 0 {
		cfg.PoolSize = EstimateOptimalPoolSize()
	}
	return cfg
}

// EstimateOptimalPoolSize returns the hardware parallelism available to the
// process, capped by GOMAXPROCS.
func EstimateOptimalPoolSize() int {
	n := runtime.NumCPU()
	if procs := runtime.GOMAXPROCS(0); procs < n {
		n = procs
	}
	if n < 1 {
		return 1
	}
	return n
}
