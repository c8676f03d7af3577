// Package cli implements the authctl commands on top of the HTTP client.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/authservice/internal/client/client"
	"github.com/dmitrijs2005/authservice/internal/common"
)

// API is the part of *client.Client the commands use.
type API interface {
	SignUp(ctx context.Context, name, email string, password []byte) error
	SignIn(ctx context.Context, email string, password []byte) error
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*client.User, error)
}

// getSimpleText and getPassword can be swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

var ErrUsage = errors.New("usage: authctl [-addr URL] [-session FILE] signup|signin|refresh|logout|me")

type App struct {
	api    API
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(api API, in io.Reader, out io.Writer) *App {
	return &App{api: api, reader: bufio.NewReader(in), out: out}
}

// Run executes the command in args[0] with optional positional arguments.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "signup":
		return a.signUp(ctx, rest)
	case "signin", "login":
		return a.signIn(ctx, rest)
	case "refresh":
		if err := a.api.Refresh(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Access token refreshed")
		return nil
	case "logout":
		if err := a.api.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Logged out successfully")
		return nil
	case "me":
		return a.me(ctx)
	case "help":
		fmt.Fprintln(a.out, ErrUsage.Error())
		return nil
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, ErrUsage)
	}
}

// arg returns rest[i] or prompts for it.
func (a *App) arg(rest []string, i int, prompt string) (string, error) {
	if i < len(rest) {
		return strings.TrimSpace(rest[i]), nil
	}
	return getSimpleText(a.reader, prompt, a.out)
}

func (a *App) signUp(ctx context.Context, rest []string) error {
	name, err := a.arg(rest, 0, "Name")
	if err != nil {
		return err
	}
	email, err := a.arg(rest, 1, "Email")
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.SignUp(ctx, name, email, password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed up")
	return nil
}

func (a *App) signIn(ctx context.Context, rest []string) error {
	email, err := a.arg(rest, 0, "Email")
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.SignIn(ctx, email, password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed in")
	return nil
}

func (a *App) me(ctx context.Context) error {
	u, err := a.api.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "id:      %s\nname:    %s\nemail:   %s\ncreated: %s\n", u.ID, u.Name, u.Email, u.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}
