// Package admin implements the administrative commands that manage user
// accounts outside the public API, including the activation flag.
package admin

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/drivesense/internal/common"
	"github.com/dmitrijs2005/drivesense/internal/flagx"
	"github.com/dmitrijs2005/drivesense/internal/server/models"
	"github.com/dmitrijs2005/drivesense/internal/server/services"
	"golang.org/x/term"
)

var ErrUsage = errors.New("usage: admin <create-user|activate|deactivate> -username NAME [-email EMAIL] [-full-name NAME] [-generate-password]")

// generatedPasswordBytes gives a 24 character hex password.
const generatedPasswordBytes = 12

type Accounts interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	SetActive(ctx context.Context, userName string, active bool) error
}

type Command struct {
	accounts     Accounts
	out          io.Writer
	readPassword func() (string, error)
}

func NewCommand(accounts Accounts, out io.Writer) *Command {
	return &Command{accounts: accounts, out: out, readPassword: promptPassword(os.Stdin, out)}
}

// promptPassword reads a password without echo from a terminal, or one line
// from in otherwise.
func promptPassword(in *os.File, out io.Writer) func() (string, error) {
	return func() (string, error) {
		fd := int(in.Fd())
		if term.IsTerminal(fd) {
			fmt.Fprint(out, "Password: ")
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(out)
			if err != nil {
				return "", err
			}
			return string(b), nil
		}
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
}

// Run executes args[0] with the remaining arguments. Server config flags may
// be mixed in; they are ignored here.
func (c *Command) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	userName := fs.String("username", "", "account username")
	email := fs.String("email", "", "account email")
	fullName := fs.String("full-name", "", "full name")
	generate := fs.Bool("generate-password", false, "generate a random password")

	own := flagx.FilterArgs(args[1:], []string{"-username", "-email", "-full-name", "-generate-password"})
	if err := fs.Parse(own); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if *userName == "" {
		return ErrUsage
	}

	switch args[0] {
	case "create-user":
		return c.createUser(ctx, *userName, *email, *fullName, *generate)
	case "activate", "deactivate":
		active := args[0] == "activate"
		if err := c.accounts.SetActive(ctx, *userName, active); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("user %q not found", *userName)
			}
			return err
		}
		state := "inactive"
		if active {
			state = "active"
		}
		fmt.Fprintf(c.out, "user %s is now %s\n", *userName, state)
		return nil
	}

	return ErrUsage
}

func (c *Command) createUser(ctx context.Context, userName, email, fullName string, generate bool) error {
	if email == "" {
		return fmt.Errorf("%w: -email is required for create-user", ErrUsage)
	}

	var (
		password string
		err      error
	)
	if generate {
		password, err = common.MakeRandHexString(generatedPasswordBytes)
	} else {
		password, err = c.readPassword()
	}
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	in := services.RegisterInput{Email: email, UserName: userName, Password: password}
	if fullName != "" {
		in.FullName = &fullName
	}

	u, err := c.accounts.Register(ctx, in)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "created user %s (id %d)\n", u.UserName, u.ID)
	if generate {
		fmt.Fprintf(c.out, "password: %s\n", password)
	}
	return nil
}
