package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
)

// Post publishes the rest of the line, or prompts when it is empty.
func (a *App) Post(ctx context.Context, args []string) error {
	content := strings.Join(args, " ")
	if content == "" {
		var err error
		content, err = getSimpleText(a.reader, "What's happening?", a.out)
		if err != nil {
			return err
		}
	}

	m, err := a.api.Post(ctx, content)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	fmt.Fprintf(a.out, "Micropost %d created\n", m.ID)
	return nil
}

func (a *App) DeletePost(ctx context.Context, args []string) error {
	if len(args) == 0 {
		err := errors.New("usage: delete <post-id>")
		log.Printf("error: %v", err)
		return err
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		log.Printf("error: invalid post id %q", args[0])
		return err
	}

	if err := a.api.DeletePost(ctx, id); err != nil {
		log.Printf("error: %v", err)
		return err
	}
	fmt.Fprintln(a.out, "Micropost deleted")
	return nil
}

// Posts lists microposts of a user, newest first: posts [user-id] [page].
func (a *App) Posts(ctx context.Context, args []string) error {
	userID, err := a.userArg(args, "posts <user-id> [page]")
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	page, err := pageArg(args, 1)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	posts, err := a.api.Posts(ctx, userID, page)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	a.printPosts(posts)
	return nil
}

// Feed shows the logged-in user's feed: feed [page].
func (a *App) Feed(ctx context.Context, args []string) error {
	page, err := pageArg(args, 0)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	posts, err := a.api.Feed(ctx, page)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	a.printPosts(posts)
	return nil
}
