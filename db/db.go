// Package db defines the resolver program's persistent storage interfaces.
package db

import "github.com/restakelabs/resolver/db/iface"

// ReadOnlyDatabase exposes the resolver DB read only functions.
type ReadOnlyDatabase = iface.ReadOnlyDatabase

// WriteAccessDatabase exposes the resolver DB writing functions.
type WriteAccessDatabase = iface.WriteAccessDatabase

// Database defines the necessary methods for the resolver's DB which may be
// implemented by any key-value or relational database in practice. This is
// the full database interface which should not be used often. Prefer a more
// restrictive interface in this package.
type Database = iface.Database
