// Package params defines process-wide parameters for the resolver node,
// with default values and overrides for tests.
package params

import (
	"os"
	"time"
)

// ResolverChainConfig contains constant parameters of the surrounding
// ledger as observed by the resolver node.
type ResolverChainConfig struct {
	// SecondsPerSlot is the duration of one logical-clock tick.
	SecondsPerSlot uint64

	// PruneSlotInterval is how many slots the retention sweeper waits
	// between pruning passes.
	PruneSlotInterval uint64
}

// IoConfig specifies io related config parameters.
type IoConfig struct {
	ReadWritePermissions        os.FileMode
	ReadWriteExecutePermissions os.FileMode
	BoltTimeout                 time.Duration
}

var defaultResolverConfig = &ResolverChainConfig{
	SecondsPerSlot:    1,
	PruneSlotInterval: 32,
}

var defaultIoConfig = &IoConfig{
	ReadWritePermissions:        0600, // Owner read/write.
	ReadWriteExecutePermissions: 0700, // Owner read/write/execute.
	BoltTimeout:                 1 * time.Second,
}

var resolverConfig = defaultResolverConfig
var ioConfig = defaultIoConfig

// ResolverConfig retrieves the current resolver chain config.
func ResolverConfig() *ResolverChainConfig {
	return resolverConfig
}

// OverrideResolverConfig by replacing the config. The preferred pattern is to
// call this once in test setup and restore the previous value on teardown.
func OverrideResolverConfig(c *ResolverChainConfig) {
	resolverConfig = c
}

// ResolverIoConfig returns the current io config.
func ResolverIoConfig() *IoConfig {
	return ioConfig
}
