// Package connection provides the HTTP client authtoken-cli uses to talk
// to authtoken-server.
//
// Responses are decoded from the server's response envelope. Error
// envelopes become *APIError values carrying the status and error code.
package connection
