// Package common contains shared constants and sentinel errors used across
// microblog components.
package common

// SessionTokenHeaderName is the gRPC metadata key carrying the short-lived
// signed session token on inbound requests.
const SessionTokenHeaderName = "session_token"

// RequestIDHeaderName is the gRPC metadata key for a caller-supplied request id.
const RequestIDHeaderName = "x-request-id"
