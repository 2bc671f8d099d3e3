// Package storage provides durable storage for authtoken on top of an
// embedded key-value engine.
//
// Layout:
//
//	tok/<kind>/<digest hex>   JSON token record (owner, created_at, payload)
//	acct/id/<account id>      JSON account record
//	acct/name/<username>      account ID (username lowercased)
//
// Read-modify-write operations run inside engine transactions, so a
// digest is removed by at most one concurrent caller and a username is
// claimed by at most one account.
package storage
