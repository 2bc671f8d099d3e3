package command

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/authtoken-go/internal/cli/connection"
)

func passwordFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"p"},
			Usage:   "Account password",
			EnvVars: []string{"AUTHTOKEN_PASSWORD"},
		},
		&cli.BoolFlag{
			Name:  "password-stdin",
			Usage: "Read the password from stdin",
		},
	}
}

// readPassword returns --password or the first line of stdin.
func readPassword(c *cli.Context) (string, error) {
	if c.Bool("password-stdin") {
		if c.String("password") != "" {
			return "", errors.New("--password and --password-stdin are mutually exclusive")
		}
		line, err := bufio.NewReader(c.App.Reader).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read password from stdin: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	if p := c.String("password"); p != "" {
		return p, nil
	}
	return "", errors.New("password required: use --password, AUTHTOKEN_PASSWORD or --password-stdin")
}

// LoginCommand returns the login command.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:      "login",
		Usage:     "Log in and save the auth token",
		ArgsUsage: "USERNAME",
		Flags: append(passwordFlags(),
			&cli.BoolFlag{
				Name:  "no-save",
				Usage: "Print the token instead of saving it",
			},
		),
		Action: login,
	}
}

func login(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: login USERNAME")
	}
	password, err := readPassword(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := connection.NewClient(serverAddr(c), "").Login(ctx, c.Args().First(), password)
	if err != nil {
		return err
	}

	if c.Bool("no-save") {
		_, err := fmt.Fprintln(c.App.Writer, res.Token)
		return err
	}

	s := settingsFrom(c)
	s.file.Token = res.Token
	s.file.Username = res.User.Username
	if err := s.save(); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	printMessage(c, "Logged in as %s", res.User.Username)
	return nil
}

// LogoutCommand returns the logout command.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Revoke the auth token",
		Action: logout,
	}
}

// logout revokes the token and forgets it. A token the server no longer
// accepts is forgotten too.
func logout(c *cli.Context) error {
	client, err := authedClient(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	err = client.Logout(ctx)
	if err != nil && !connection.IsUnauthorized(err) {
		return err
	}

	s := settingsFrom(c)
	if s.file.Token != "" && s.file.Token == authToken(c) {
		s.file.Token = ""
		s.file.Username = ""
		if serr := s.save(); serr != nil {
			return fmt.Errorf("clear saved token: %w", serr)
		}
	}
	if err != nil {
		printMessage(c, "Token was no longer valid")
		return nil
	}
	printMessage(c, "Logged out")
	return nil
}

// WhoamiCommand returns the whoami command.
func WhoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the account of the auth token",
		Action: func(c *cli.Context) error {
			client, err := authedClient(c)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(c)
			defer cancel()

			acct, err := client.Account(ctx)
			if err != nil {
				return err
			}
			return printResult(c, acct)
		},
	}
}

// RegisterCommand returns the register command.
func RegisterCommand() *cli.Command {
	return &cli.Command{
		Name:      "register",
		Usage:     "Create an account",
		ArgsUsage: "USERNAME",
		Flags: append(passwordFlags(),
			&cli.StringFlag{
				Name:    "email",
				Aliases: []string{"e"},
				Usage:   "Email address",
			},
		),
		Action: register,
	}
}

func register(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: register USERNAME")
	}
	password, err := readPassword(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	username := c.Args().First()
	if err := connection.NewClient(serverAddr(c), "").Register(ctx, username, password, c.String("email")); err != nil {
		return err
	}
	printMessage(c, "Account %s registered", username)
	return nil
}

// EmailCommand returns the email subcommand group.
func EmailCommand() *cli.Command {
	return &cli.Command{
		Name:  "email",
		Usage: "Manage the email address of the account",
		Subcommands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Change the email address",
				ArgsUsage: "ADDRESS",
				Action:    emailSet,
			},
			{
				Name:   "resend",
				Usage:  "Mail a new confirmation link",
				Action: emailResend,
			},
			{
				Name:      "confirm",
				Usage:     "Redeem a confirmation token",
				ArgsUsage: "TOKEN",
				Action:    emailConfirm,
			},
		},
	}
}

func emailSet(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: email set ADDRESS")
	}
	client, err := authedClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	acct, err := client.ChangeEmail(ctx, c.Args().First())
	if err != nil {
		return err
	}
	return printResult(c, acct)
}

func emailResend(c *cli.Context) error {
	client, err := authedClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := client.ResendConfirmation(ctx); err != nil {
		return err
	}
	printMessage(c, "Confirmation mail sent")
	return nil
}

// emailConfirm needs no auth token; the confirmation token is the credential.
func emailConfirm(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: email confirm TOKEN")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	location, err := connection.NewClient(serverAddr(c), "").Confirm(ctx, c.Args().First())
	if err != nil {
		return err
	}
	printMessage(c, "Confirmation accepted (redirect: %s)", location)
	return nil
}
