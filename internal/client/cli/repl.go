package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. Commands that
// take arguments receive everything after the command word.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Forget(ctx context.Context) error
	Profile(ctx context.Context, args []string) error
	Users(ctx context.Context, args []string) error
	Follow(ctx context.Context, args []string) error
	Unfollow(ctx context.Context, args []string) error
	Following(ctx context.Context, args []string) error
	Followers(ctx context.Context, args []string) error
	Post(ctx context.Context, args []string) error
	DeletePost(ctx context.Context, args []string) error
	Posts(ctx context.Context, args []string) error
	Feed(ctx context.Context, args []string) error
}

// runREPL reads one command per line from reader and dispatches it to a.
// It returns on EOF or when the user types "exit" or "quit".
//
//	Not logged in:
//	  help, register, login, users [page], profile <id>,
//	  posts <id> [page], following <id> [page], followers <id> [page], exit
//
//	Logged in, additionally:
//	  post <text>, delete <post-id>, feed [page], follow <id>, unfollow <id>,
//	  profile, logout, forget
//
// Handlers log their own errors, so the loop ignores them.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("mb %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: post, delete, feed, posts, follow, unfollow, following, followers, profile, users, logout, forget, exit")
			} else {
				printlnFn("Available commands: register, login, users, profile, posts, following, followers, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "forget":
			_ = a.Forget(ctx)

		case "profile":
			_ = a.Profile(ctx, args)

		case "users":
			_ = a.Users(ctx, args)

		case "follow":
			_ = a.Follow(ctx, args)

		case "unfollow":
			_ = a.Unfollow(ctx, args)

		case "following":
			_ = a.Following(ctx, args)

		case "followers":
			_ = a.Followers(ctx, args)

		case "post":
			_ = a.Post(ctx, args)

		case "delete":
			_ = a.DeletePost(ctx, args)

		case "posts":
			_ = a.Posts(ctx, args)

		case "feed":
			_ = a.Feed(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}
