package cli

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/dmitrijs2005/microblog/internal/common"
)

// getSimpleText, getPassword and getYesNo are indirections used to
// facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getYesNo      = GetYesNo
)

var errNotLoggedIn = errors.New("not logged in")

// Register prompts for name, email, password with confirmation and the
// remember-me choice, then signs up. A successful sign-up also logs in.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirmation, err := getPassword("Confirm password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirmation)

	remember, err := getYesNo(a.reader, "Remember me?", a.out)
	if err != nil {
		return err
	}

	if err := a.api.SignUp(ctx, name, email, password, confirmation, remember); err != nil {
		log.Printf("Sign up unsuccessful: %s", err.Error())
		return err
	}

	a.userName = email
	fmt.Fprintln(a.out, "Welcome to the microblog!")
	return nil
}

// Login prompts for credentials and the remember-me choice.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	remember, err := getYesNo(a.reader, "Remember me?", a.out)
	if err != nil {
		return err
	}

	if err := a.api.Login(ctx, email, password, remember); err != nil {
		log.Printf("Login unsuccessful: %s", err.Error())
		return err
	}

	a.userName = email
	log.Printf("Login successful")
	return nil
}

// Logout ends the session on the server and locally.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		log.Printf("error: %v", errNotLoggedIn)
		return errNotLoggedIn
	}

	err := a.api.Logout(ctx)
	a.userName = ""
	if err != nil {
		log.Printf("error: %v", err)
		return err
	}
	return nil
}

// Forget invalidates the remember token on every device.
func (a *App) Forget(ctx context.Context) error {
	if err := a.api.Forget(ctx); err != nil {
		log.Printf("error: %v", err)
		return err
	}
	fmt.Fprintln(a.out, "Remembered logins forgotten")
	return nil
}
