package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"strings"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/router"
)

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"login":   cmdLogin,
	"logout":  cmdLogout,
	"whoami":  cmdWhoami,
	"refresh": cmdRefresh,
	"passwd":  cmdPasswd,
	"open":    cmdOpen,
	"serve":   cmdServe,
}

// errFailed reports a failure whose message was already shown.
var errFailed = errors.New("command failed")

func newFlagSet(a *app, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "login")
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password (read from stdin when empty)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *username == "" {
		fmt.Fprintln(a.stderr, "login: -u is required")
		return errUsage
	}

	pw := *password
	if pw == "" {
		var err error
		if pw, err = prompt(a, "Password: "); err != nil {
			return err
		}
	}

	res := a.engine.Login(ctx, *username, pw)
	if !res.Success {
		fmt.Fprintln(a.stderr, res.Message)
		return errFailed
	}
	fmt.Fprintf(a.stdout, "logged in as %s (%s)\n", res.User.Username, res.User.Role)
	if res.User.FirstLogin {
		fmt.Fprintln(a.stdout, "first login: change your password with \"goadmin passwd\"")
	}
	return nil
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	a.engine.Logout(ctx)
	fmt.Fprintln(a.stdout, "logged out")
	return nil
}

func cmdWhoami(ctx context.Context, a *app, _ []string) error {
	if a.engine.InitAuth() != goAdmin.StateAuthenticated {
		fmt.Fprintln(a.stderr, "not logged in")
		return errFailed
	}
	user, err := a.engine.FetchProfile(ctx)
	if err != nil {
		if errors.Is(err, goAdmin.ErrAuthExpired) {
			fmt.Fprintln(a.stderr, "session expired, log in again")
			return errFailed
		}
		return err
	}
	return writeJSON(a.stdout, user)
}

func cmdRefresh(ctx context.Context, a *app, _ []string) error {
	if err := a.engine.RefreshAccessToken(ctx); err != nil {
		if errors.Is(err, goAdmin.ErrNoRefreshToken) {
			fmt.Fprintln(a.stderr, "not logged in")
			return errFailed
		}
		return err
	}
	snap := a.engine.Snapshot()
	if snap.AccessExpiresAt.IsZero() {
		fmt.Fprintln(a.stdout, "token refreshed")
		return nil
	}
	fmt.Fprintf(a.stdout, "token refreshed, expires %s\n", snap.AccessExpiresAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}

func cmdPasswd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "passwd")
	current := fs.String("current", "", "current password (empty on first login)")
	next := fs.String("new", "", "new password (read from stdin when empty)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if a.engine.InitAuth() != goAdmin.StateAuthenticated {
		fmt.Fprintln(a.stderr, "not logged in")
		return errFailed
	}

	pw := *next
	if pw == "" {
		var err error
		if pw, err = prompt(a, "New password: "); err != nil {
			return err
		}
	}
	if pw == "" {
		fmt.Fprintln(a.stderr, "passwd: new password is empty")
		return errUsage
	}

	res := a.engine.ChangePassword(ctx, *current, pw)
	if !res.Success {
		fmt.Fprintln(a.stderr, res.Message)
		return errFailed
	}
	msg := res.Message
	if msg == "" {
		msg = "password changed"
	}
	fmt.Fprintln(a.stdout, msg)
	return nil
}

// maxHops bounds redirect chains followed by open.
const maxHops = 4

func cmdOpen(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.stderr, "usage: goadmin open <path>")
		return errUsage
	}
	guard, err := newGuard(a)
	if err != nil {
		return err
	}

	target, query := splitTarget(args[0])
	for hop := 0; ; hop++ {
		d := guard.BeforeEach(ctx, target)
		switch d.Outcome {
		case router.Allow:
			data, err := render(ctx, a.engine, d.Match.Route.Name, query)
			if err != nil {
				return err
			}
			return writeJSON(a.stdout, data)
		case router.Redirect:
			if hop == maxHops {
				return fmt.Errorf("too many redirects at %s", d.Location)
			}
			fmt.Fprintf(a.stderr, "-> %s (%s)\n", d.Location, d.Reason)
			if d.Location == router.LoginPath {
				fmt.Fprintln(a.stderr, "log in with \"goadmin login -u <user>\"")
				return errFailed
			}
			target = d.Location
		default:
			fmt.Fprintf(a.stderr, "%s: %s\n", d.Match.Requested, d.Reason)
			return errFailed
		}
	}
}

func newGuard(a *app) (*router.Guard, error) {
	return router.NewGuard(a.engine, router.DefaultTable(),
		router.WithLogger(a.logger),
		router.WithRecorder(a.engine.Metrics()),
	)
}

func splitTarget(raw string) (string, url.Values) {
	p, q, _ := strings.Cut(raw, "?")
	values, err := url.ParseQuery(q)
	if err != nil {
		values = url.Values{}
	}
	return p, values
}

func prompt(a *app, label string) (string, error) {
	fmt.Fprint(a.stderr, label)
	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
