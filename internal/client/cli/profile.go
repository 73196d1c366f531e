package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/foundationauth/internal/api"
	"github.com/dmitrijs2005/foundationauth/internal/client/client"
	"github.com/dmitrijs2005/foundationauth/internal/common"
)

func printUser(w io.Writer, u *api.User) {
	fmt.Fprintf(w, "ID:        %s\n", u.ID)
	fmt.Fprintf(w, "Username:  %s\n", u.Username)
	fmt.Fprintf(w, "Email:     %s\n", u.Email)
	fmt.Fprintf(w, "Role:      %s\n", u.Role)
	fmt.Fprintf(w, "Verified:  %t\n", u.IsEmailVerified)
	fmt.Fprintf(w, "Created:   %s\n", u.CreatedAt.Local().Format(time.RFC1123))
	if u.UpdatedAt != nil {
		fmt.Fprintf(w, "Updated:   %s\n", u.UpdatedAt.Local().Format(time.RFC1123))
	}
}

func (a *App) requireLogin() error {
	if !a.isLoggedIn() {
		return a.fail(client.ErrNotLoggedIn)
	}
	return nil
}

func (a *App) Profile(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	u, err := a.service.Profile(ctx)
	if err != nil {
		return a.fail(err)
	}
	printUser(a.out, u)
	return nil
}

func (a *App) Update(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	username, err := GetSimpleText(a.reader, "New user name (empty to keep)", a.out)
	if err != nil {
		return a.fail(err)
	}
	email, err := GetSimpleText(a.reader, "New email (empty to keep)", a.out)
	if err != nil {
		return a.fail(err)
	}

	var password []byte
	change, err := Confirm(a.reader, "Change password?", a.out)
	if err != nil {
		return a.fail(err)
	}
	if change {
		password, err = a.readNewPassword("New password")
		if err != nil {
			return a.fail(err)
		}
		defer common.WipeByteArray(password)
	}

	if username == "" && email == "" && len(password) == 0 {
		fmt.Fprintln(a.out, "Nothing to change")
		return nil
	}

	u, err := a.service.UpdateProfile(ctx, username, email, password)
	if err != nil {
		return a.fail(err)
	}
	a.userName = u.Username
	fmt.Fprintln(a.out, "Profile updated")
	printUser(a.out, u)
	return nil
}

func (a *App) Delete(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	ok, err := Confirm(a.reader, "Delete your account permanently?", a.out)
	if err != nil {
		return a.fail(err)
	}
	if !ok {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}

	if err := a.service.DeleteAccount(ctx); err != nil {
		return a.fail(err)
	}
	a.userName = ""
	fmt.Fprintln(a.out, "Account deleted")
	return nil
}

func (a *App) Admin(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	msg, err := a.service.AdminPing(ctx)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintln(a.out, msg)
	return nil
}
