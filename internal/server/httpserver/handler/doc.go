// Package handler implements the authtoken HTTP API.
//
// Every JSON response uses the Response envelope. Errors carry the
// DomainError code in both the body and the X-Error-Code header; the
// internal reason of an invalid token is never written to the client.
package handler
