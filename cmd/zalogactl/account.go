package main

import (
	"context"
	"flag"
	"fmt"
)

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	var email, username, password string
	fs.StringVar(&email, "email", "", "email address")
	fs.StringVar(&email, "e", "", "email address")
	fs.StringVar(&username, "username", "", "username")
	fs.StringVar(&username, "u", "", "username")
	fs.StringVar(&password, "password", "", "password (prompted when empty)")
	fs.StringVar(&password, "p", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return errReported
	}

	var err error
	if email, err = a.prompt("Email", email); err != nil {
		return err
	}
	if username, err = a.prompt("Username", username); err != nil {
		return err
	}
	if password, err = a.prompt("Password", password); err != nil {
		return err
	}

	user, err := a.session.Register(ctx, email, username, password)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Welcome, %s!\n", user.Username)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	var email, password string
	fs.StringVar(&email, "email", "", "email address")
	fs.StringVar(&email, "e", "", "email address")
	fs.StringVar(&password, "password", "", "password (prompted when empty)")
	fs.StringVar(&password, "p", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return errReported
	}

	var err error
	if email, err = a.prompt("Email", email); err != nil {
		return err
	}
	if password, err = a.prompt("Password", password); err != nil {
		return err
	}

	user, err := a.session.Login(ctx, email, password)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintf(a.out, "Signed in as %s.\n", user.Username)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if !a.session.Authenticated() {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}
	// Local state is cleared whether or not the server call succeeds.
	if err := a.session.Logout(ctx); err != nil {
		fmt.Fprintf(a.errOut, "warning: %s\n", err)
	}
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func (a *app) whoami() error {
	if err := a.requireSession(); err != nil {
		return err
	}
	user := a.session.User()
	fmt.Fprintf(a.out, "%s <%s>\n", user.Username, user.Email)
	return nil
}

func (a *app) passwd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("passwd", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	var current, next string
	fs.StringVar(&current, "current", "", "current password")
	fs.StringVar(&next, "new", "", "new password")
	if err := fs.Parse(args); err != nil {
		return errReported
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	var err error
	if current, err = a.prompt("Current password", current); err != nil {
		return err
	}
	if next, err = a.prompt("New password", next); err != nil {
		return err
	}

	msg, err := a.client.ChangePassword(ctx, current, next)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintln(a.out, msg.Message)
	return nil
}

func (a *app) forgot(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("forgot", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	var email string
	fs.StringVar(&email, "email", "", "email address")
	fs.StringVar(&email, "e", "", "email address")
	if err := fs.Parse(args); err != nil {
		return errReported
	}

	var err error
	if email, err = a.prompt("Email", email); err != nil {
		return err
	}

	msg, err := a.client.ForgotPassword(ctx, email)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintln(a.out, msg.Message)
	return nil
}

func (a *app) reset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	var token, password string
	fs.StringVar(&token, "token", "", "reset token from the email")
	fs.StringVar(&token, "t", "", "reset token from the email")
	fs.StringVar(&password, "password", "", "new password")
	fs.StringVar(&password, "p", "", "new password")
	if err := fs.Parse(args); err != nil {
		return errReported
	}

	var err error
	if token, err = a.prompt("Reset token", token); err != nil {
		return err
	}
	if password, err = a.prompt("New password", password); err != nil {
		return err
	}

	msg, err := a.client.ResetPassword(ctx, token, password)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintln(a.out, msg.Message)
	return nil
}
