package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/x/term"

	"go-arrange/auth"
)

func accountFlags(name string) (*flag.FlagSet, *string, *string) {
	flags := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := flags.String("config", "", "config file")
	email := flags.String("email", "", "account email")
	return flags, configPath, email
}

func commandContext(e *env) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(e.cfg.Server.Timeout))
}

func login(args []string) error {
	flags, configPath, email := accountFlags("login")
	flags.Parse(args)

	e, err := setup(*configPath)
	if err != nil {
		return err
	}
	cred, err := prompt(os.Stdin, os.Stdout, auth.Credentials{Email: *email}, false)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(e)
	defer cancel()
	if err := e.session.SignIn(ctx, cred); err != nil {
		return err
	}
	fmt.Printf("Signed in as %s\n", e.session.Subject())
	return nil
}

func signup(args []string) error {
	flags, configPath, email := accountFlags("signup")
	name := flags.String("name", "", "display name")
	flags.Parse(args)

	e, err := setup(*configPath)
	if err != nil {
		return err
	}
	cred, err := prompt(os.Stdin, os.Stdout, auth.Credentials{Email: *email, Name: *name}, true)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(e)
	defer cancel()
	if err := e.session.SignUp(ctx, cred); err != nil {
		return err
	}
	fmt.Printf("Created account %s\n", cred.Email)
	return nil
}

func logout(args []string) error {
	flags, configPath, _ := accountFlags("logout")
	flags.Parse(args)

	e, err := setup(*configPath)
	if err != nil {
		return err
	}
	if !e.session.SignedIn() {
		fmt.Println("Not signed in")
		return nil
	}
	ctx, cancel := commandContext(e)
	defer cancel()
	err = e.session.SignOut(ctx)
	fmt.Println("Signed out")
	return err
}

func whoami(args []string) error {
	flags, configPath, _ := accountFlags("whoami")
	flags.Parse(args)

	e, err := setup(*configPath)
	if err != nil {
		return err
	}
	if !e.session.SignedIn() {
		return auth.ErrSignedOut
	}
	ctx, cancel := commandContext(e)
	defer cancel()
	if p := e.session.Profile(ctx); p != nil {
		fmt.Printf("%s <%s> (%s)\n", p.Name, p.Email, p.ID)
		return nil
	}
	fmt.Println(e.session.Subject())
	return nil
}

// pull downloads a server project into the local library
func pull(args []string) error {
	flags, configPath, _ := accountFlags("pull")
	flags.Parse(args)
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: go-arrange pull <project-id>")
	}

	e, err := setup(*configPath)
	if err != nil {
		return err
	}
	if !e.session.SignedIn() {
		return auth.ErrSignedOut
	}
	ctx, cancel := commandContext(e)
	defer cancel()
	p, err := e.client.Pull(ctx, flags.Arg(0))
	if err != nil {
		return err
	}
	info, err := e.library.Save(p, "pulled")
	if err != nil {
		return err
	}
	fmt.Printf("Saved %s/%s\n", p.Name, info.Filename)
	return nil
}

// prompt fills in whatever credentials the flags did not give. The
// password is read without echo when stdin is a terminal.
func prompt(in *os.File, out io.Writer, cred auth.Credentials, withName bool) (auth.Credentials, error) {
	r := bufio.NewReader(in)
	readLine := func(label string) (string, error) {
		fmt.Fprint(out, label)
		line, err := r.ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}

	var err error
	if cred.Email == "" {
		if cred.Email, err = readLine("Email: "); err != nil {
			return cred, err
		}
	}
	if withName && cred.Name == "" {
		if cred.Name, err = readLine("Name: "); err != nil {
			return cred, err
		}
	}

	if term.IsTerminal(in.Fd()) {
		fmt.Fprint(out, "Password: ")
		pw, err := term.ReadPassword(in.Fd())
		fmt.Fprintln(out)
		if err != nil {
			return cred, err
		}
		cred.Password = string(pw)
		return cred, nil
	}
	cred.Password, err = readLine("Password: ")
	return cred, err
}
