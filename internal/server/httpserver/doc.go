// Package httpserver provides the HTTP/HTTPS server for authtoken.
//
// This package wires the handler package into a stdlib net/http ServeMux:
//
//   - Account endpoints: /login, /logout, /register, /account, /account/email
//   - Confirmation endpoints: /confirm_email/{token}/, /confirm_email/resend
//   - Health endpoints: /health, /ready, /metrics
//
// Every route runs through RequestID, Recover and Audit. Routes that need a
// caller run TokenAuth, which resolves "Authorization: Token <secret>".
package httpserver
