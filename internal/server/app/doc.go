// Package app assembles authtoken-server from its configuration: storage,
// token lifecycles, services, mailer and the HTTP router.
//
// authtoken-cli uses the same assembly for its offline store commands, so
// both binaries agree on key layout and validity windows.
package app
