// Package client talks to the microblog gRPC service on behalf of the CLI.
//
// GRPCClient keeps the session token returned by sign-up or login and
// attaches it to every call. When the server rejects an expired session and
// a remember token is held, the client resumes the session once and retries
// the call transparently.
package client
