package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/foundationauth/internal/common"
)

var errPasswordMismatch = errors.New("passwords do not match")

func (a *App) fail(err error) error {
	fmt.Fprintf(a.out, "error: %v\n", err)
	return err
}

// readNewPassword asks for a password twice and returns it when both entries
// match.
func (a *App) readNewPassword(prompt string) ([]byte, error) {
	pw, err := GetPassword(a.out, prompt)
	if err != nil {
		return nil, err
	}
	again, err := GetPassword(a.out, "Repeat password")
	if err != nil {
		common.WipeByteArray(pw)
		return nil, err
	}
	defer common.WipeByteArray(again)

	if !bytes.Equal(pw, again) {
		common.WipeByteArray(pw)
		return nil, errPasswordMismatch
	}
	return pw, nil
}

func (a *App) Register(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Enter user name", a.out)
	if err != nil {
		return a.fail(err)
	}
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return a.fail(err)
	}
	password, err := a.readNewPassword("Enter password")
	if err != nil {
		return a.fail(err)
	}
	defer common.WipeByteArray(password)

	user, err := a.service.Register(ctx, username, email, password)
	if err != nil {
		return a.fail(err)
	}

	fmt.Fprintf(a.out, "Registered %s. Check %s for the verification link.\n", user.Username, user.Email)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return a.fail(err)
	}
	password, err := GetPassword(a.out, "Enter password")
	if err != nil {
		return a.fail(err)
	}
	defer common.WipeByteArray(password)

	user, err := a.service.Login(ctx, email, password)
	if err != nil {
		return a.fail(err)
	}

	a.userName = user.Username
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) Logout(context.Context) error {
	a.service.Logout()
	a.userName = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// Verify accepts either the raw token or the whole link from the email,
// given as an argument or at the prompt.
func (a *App) Verify(ctx context.Context, args []string) error {
	var input string
	if len(args) > 0 {
		input = args[0]
	} else {
		var err error
		input, err = GetSimpleText(a.reader, "Paste the verification token or link", a.out)
		if err != nil {
			return a.fail(err)
		}
	}

	msg, err := a.service.VerifyEmail(ctx, extractToken(input))
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *App) Resend(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return a.fail(err)
	}
	msg, err := a.service.ResendVerification(ctx, email)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func extractToken(input string) string {
	input = strings.TrimSpace(input)
	if !strings.Contains(input, "token=") {
		return input
	}
	u, err := url.Parse(input)
	if err != nil {
		return input
	}
	if t := u.Query().Get("token"); t != "" {
		return t
	}
	return input
}
