// Package iface defines the database interface for the resolver program,
// decoupling handlers and services from the underlying key-value engine.
package iface

import (
	"context"
	"io"

	"github.com/restakelabs/resolver/core"
	"github.com/restakelabs/resolver/types"
)

// ReadOnlyDatabase represents a read only database with functions that do not
// modify the DB.
type ReadOnlyDatabase interface {
	// Program configuration related methods.
	ProgramConfig(ctx context.Context, addr types.PublicKey) (*core.Config, error)
	NcnConfig(ctx context.Context, addr types.PublicKey) (*core.NcnConfig, error)

	// Registry related methods.
	Resolver(ctx context.Context, addr types.PublicKey) (*core.Resolver, error)
	Slasher(ctx context.Context, addr types.PublicKey) (*core.Slasher, error)

	// SlashProposal related methods.
	SlashProposal(ctx context.Context, addr types.PublicKey) (*core.SlashProposal, error)
	HasSlashProposal(ctx context.Context, addr types.PublicKey) (bool, error)
	SlashProposalsByStatus(ctx context.Context, status core.ProposalStatus) ([]*core.SlashProposal, error)
}

// WriteAccessDatabase represents a write access database with only functions
// that can modify the DB.
type WriteAccessDatabase interface {
	// Program configuration related methods.
	CreateProgramConfig(ctx context.Context, addr types.PublicKey, cfg *core.Config) error
	CreateNcnConfig(ctx context.Context, addr types.PublicKey, cfg *core.NcnConfig) error
	SaveNcnConfig(ctx context.Context, addr types.PublicKey, cfg *core.NcnConfig) error

	// Registry related methods.
	CreateResolver(ctx context.Context, addr types.PublicKey, r *core.Resolver) error
	SaveResolver(ctx context.Context, addr types.PublicKey, r *core.Resolver) error
	CreateSlasher(ctx context.Context, addr types.PublicKey, s *core.Slasher) error
	SaveSlasher(ctx context.Context, addr types.PublicKey, s *core.Slasher) error

	// SlashProposal related methods.
	CreateSlashProposal(ctx context.Context, addr types.PublicKey, p *core.SlashProposal) error
	TerminateSlashProposal(ctx context.Context, addr types.PublicKey, p *core.SlashProposal) error
	DeleteSlashProposal(ctx context.Context, addr types.PublicKey) error
	PruneResolvedProposals(ctx context.Context, currentSlot types.Slot) (int, error)
}

// Database represents a full access database with the proper DB helper
// functions.
type Database interface {
	io.Closer
	ReadOnlyDatabase
	WriteAccessDatabase

	DatabasePath() string
	ClearDB() error
	Backup(ctx context.Context, outputDir string) error
}
