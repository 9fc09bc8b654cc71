// Package cli provides the interactive microblog command-line client.
//
// It wires configuration, the gRPC client and a REPL. Commands map one to
// one onto the service RPCs:
//
//   - register / login / logout / forget
//   - post, delete, posts, feed
//   - follow, unfollow, following, followers
//   - profile, users
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
