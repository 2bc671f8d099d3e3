// Package service provides the domain services of authtoken.
//
// Services hold business logic and define the storage interfaces they need,
// so storage engines can be swapped and faked in tests.
//
//   - Lifecycle: issue, resolve, revoke, consume and sweep tokens of one kind
//   - Authenticator: "Authorization: Token <secret>" parsing and resolution
//   - AccountService: registration, login, logout and email changes
//   - ConfirmationService: email confirmation tokens and their delivery
//   - Sweeper: periodic removal of expired tokens of every kind
//
// Services are stateless apart from configuration and safe for concurrent use.
package service
