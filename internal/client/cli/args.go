package cli

import (
	"fmt"
	"strconv"
)

// pageArg reads an optional page number at args[i]; absent means page 1.
func pageArg(args []string, i int) (int, error) {
	if len(args) <= i {
		return 1, nil
	}
	page, err := strconv.Atoi(args[i])
	if err != nil || page < 1 {
		return 0, fmt.Errorf("invalid page %q", args[i])
	}
	return page, nil
}

// userArg returns args[0], falling back to the logged-in identity.
func (a *App) userArg(args []string, usage string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if id := a.api.UserID(); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("usage: %s", usage)
}
