// Package memory provides in-memory storage for authtoken.
//
// TokenStore and AccountStore keep their records in sharded concurrent maps
// (pkg/cmap). Records are cloned on the way in and out, so callers never
// share state with the store.
//
// Nothing survives a restart; use the Badger-backed stores in package
// storage for durability.
package memory
