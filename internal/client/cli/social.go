package cli

import (
	"context"
	"errors"
	"fmt"
	"log"

	gs "github.com/dmitrijs2005/microblog/internal/server/grpc"
)

func (a *App) Profile(ctx context.Context, args []string) error {
	userID, err := a.userArg(args, "profile <user-id>")
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	p, err := a.api.Profile(ctx, userID)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	a.printProfile(p)
	return nil
}

func (a *App) Users(ctx context.Context, args []string) error {
	page, err := pageArg(args, 0)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	users, err := a.api.Users(ctx, page)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	a.printUsers(users)
	return nil
}

func (a *App) Follow(ctx context.Context, args []string) error {
	return a.changeFollow(ctx, args, "follow", a.api.Follow)
}

func (a *App) Unfollow(ctx context.Context, args []string) error {
	return a.changeFollow(ctx, args, "unfollow", a.api.Unfollow)
}

func (a *App) changeFollow(ctx context.Context, args []string, verb string, call func(context.Context, string) error) error {
	if len(args) == 0 {
		err := errors.New("usage: " + verb + " <user-id>")
		log.Printf("error: %v", err)
		return err
	}

	if err := call(ctx, args[0]); err != nil {
		log.Printf("error: %v", err)
		return err
	}
	fmt.Fprintf(a.out, "%s %s: done\n", verb, args[0])
	return nil
}

func (a *App) Following(ctx context.Context, args []string) error {
	return a.listGraph(ctx, args, "following", a.api.Following)
}

func (a *App) Followers(ctx context.Context, args []string) error {
	return a.listGraph(ctx, args, "followers", a.api.Followers)
}

func (a *App) listGraph(ctx context.Context, args []string, cmd string, call func(context.Context, string, int) ([]gs.User, error)) error {
	userID, err := a.userArg(args, cmd+" <user-id> [page]")
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	page, err := pageArg(args, 1)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}

	users, err := call(ctx, userID, page)
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	a.printUsers(users)
	return nil
}
