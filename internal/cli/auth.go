package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/mmcdole/stacks/internal/config"
	"github.com/mmcdole/stacks/internal/domain"
)

// prompter reads answers from the command's input. Passwords are read
// without echo when input is a terminal.
type prompter struct {
	in       *bufio.Reader
	out      io.Writer
	terminal int // fd, or -1 when input is not a terminal
}

func newPrompter(cmd *cobra.Command) *prompter {
	p := &prompter{
		in:       bufio.NewReader(cmd.InOrStdin()),
		out:      cmd.ErrOrStderr(),
		terminal: -1,
	}
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.terminal = int(f.Fd())
	}
	return p
}

func (p *prompter) line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	input, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(input), nil
}

func (p *prompter) password(prompt string) (string, error) {
	if p.terminal < 0 {
		return p.line(prompt)
	}
	fmt.Fprint(p.out, prompt)
	b, err := term.ReadPassword(p.terminal)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// NewSetupCommand creates the setup command
func NewSetupCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "setup [server-url]",
		Short: "Save the library service URL to config.yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(cmd, opts, args)
		},
	}
}

func runSetup(cmd *cobra.Command, opts *RootOptions, args []string) error {
	out := newFormatter(cmd, opts)

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	var serverURL string
	if len(args) == 1 {
		serverURL = strings.TrimSpace(args[0])
	}
	p := newPrompter(cmd)
	for serverURL == "" {
		serverURL, err = p.line(fmt.Sprintf("Library service URL [%s]: ", cfg.Server.URL))
		if err != nil {
			return WrapExitError(ExitCommandError, "setup aborted", err)
		}
		if serverURL == "" {
			serverURL = cfg.Server.URL
		}
	}
	cfg.Server.URL = serverURL

	dir := opts.ConfigDir
	if dir == "" {
		err = config.SaveConfig(cfg)
	} else {
		err = config.Save(viper.New(), cfg, dir)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to save config", err)
	}

	return out.Success(map[string]string{"server": cfg.Server.URL}, func(w io.Writer) {
		fmt.Fprintf(w, "Saved. Stacks will use %s\n", cfg.Server.URL)
	})
}

// NewLoginCommand creates the login command
func NewLoginCommand(opts *RootOptions) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, opts, email)
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email (prompted when empty)")
	return cmd
}

func runLogin(cmd *cobra.Command, opts *RootOptions, email string) error {
	out := newFormatter(cmd, opts)

	app, err := NewApp(cmd, opts, false)
	if err != nil {
		return err
	}
	defer app.Close()

	p := newPrompter(cmd)
	if email == "" {
		if email, err = p.line("Email: "); err != nil {
			return WrapExitError(ExitCommandError, "login aborted", err)
		}
	}
	password, err := p.password("Password: ")
	if err != nil {
		return WrapExitError(ExitCommandError, "login aborted", err)
	}

	res := app.Session.Login(cmd.Context(), domain.Credentials{Email: email, Password: password})
	if !res.Success {
		kind := domain.FailureRejected
		if len(res.FieldErrors) > 0 {
			kind = domain.FailureValidation
		}
		return reportFailure(out, &domain.Failure{Kind: kind, Message: res.Error, FieldErrors: res.FieldErrors})
	}

	return out.Success(res.User, func(w io.Writer) {
		fmt.Fprintf(w, "Signed in as %s (%s)\n", res.User.DisplayName(), res.User.Role)
	})
}

// NewLogoutCommand creates the logout command
func NewLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, opts)

			app, err := NewApp(cmd, opts, false)
			if err != nil {
				return err
			}
			defer app.Close()

			app.Session.Init(cmd.Context())
			app.Session.Logout(cmd.Context())

			return out.Success(map[string]bool{"signedOut": true}, func(w io.Writer) {
				fmt.Fprintln(w, "Signed out")
			})
		},
	}
}

// NewWhoamiCommand creates the whoami command
func NewWhoamiCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, opts)

			app, err := NewApp(cmd, opts, false)
			if err != nil {
				return err
			}
			defer app.Close()

			sess, err := app.RequireSession(cmd.Context())
			if err != nil {
				return err
			}
			u := sess.User
			return out.Success(u, func(w io.Writer) {
				fmt.Fprintf(w, "%s <%s>\n", u.DisplayName(), u.Email)
				fmt.Fprintf(w, "Role: %s\n", u.Role)
			})
		},
	}
}
