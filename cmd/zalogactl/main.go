package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/erazemk/zaloga/internal/client"
	"github.com/erazemk/zaloga/internal/config"
	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/localstore"
	"github.com/erazemk/zaloga/internal/session"
)

const usage = `Usage: zalogactl <command> [flags]

Account:
  register                   create an account and sign in
  login                      sign in
  logout                     sign out
  whoami                     show the signed-in user
  passwd                     change your password
  forgot                     request a password reset link
  reset                      set a new password with a reset token

Items:
  list                       list items (-s search, -status, -category, -frequency)
  add                        add an item (-n name, -c category, ...)
  edit <id>                  replace an item's fields
  status <id> <status>       set stock status (in_stock, low, out_of_stock)
  delete <id>                delete an item (-y to skip confirmation)
  stats                      show inventory statistics

Run "zalogactl <command> -h" for command flags. The API address comes from
ZALOGA_API_URL (default http://localhost:8080/api).
`

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

// errReported marks failures that were already shown to the user.
var errReported = errors.New("reported")

// app wires the API client, session and item list for one invocation.
type app struct {
	cmd     string
	in      *bufio.Reader
	out     io.Writer
	errOut  io.Writer
	client  *client.Client
	session *session.Store
}

func run(ctx context.Context, cfg *config.Client, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "-help" || args[0] == "help" {
		fmt.Fprint(stdout, usage)
		return nil
	}

	// Client diagnostics go to stderr; only warnings and errors by default.
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	var storage client.Storage = localstore.NewMemory()
	if cfg.StatePath != "" {
		f, err := localstore.Open(cfg.StatePath)
		if err != nil {
			return err
		}
		storage = f
	}

	cmd, rest := args[0], args[1:]
	a := &app{
		cmd:    cmd,
		in:     bufio.NewReader(stdin),
		out:    stdout,
		errOut: stderr,
	}

	httpClient := &http.Client{Timeout: client.DefaultTimeout}
	if cfg.Timeout > 0 {
		httpClient.Timeout = cfg.Timeout
	}

	a.client = client.New(cfg.APIURL, storage,
		client.WithHTTPClient(httpClient),
		client.WithLogger(logger),
		client.WithNavigator(client.NavigatorFunc(a.sessionEnded)),
	)
	a.session = session.New(a.client, session.WithLogger(logger))

	// A stale token is cleared here; commands then see an anonymous session.
	if err := a.session.Init(ctx); err != nil && !a.signingIn() {
		fmt.Fprintln(stderr, "Your saved session could not be restored. Run \"zalogactl login\" to sign in again.")
	}

	switch cmd {
	case "register":
		return a.register(ctx, rest)
	case "login":
		return a.login(ctx, rest)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami()
	case "passwd":
		return a.passwd(ctx, rest)
	case "forgot":
		return a.forgot(ctx, rest)
	case "reset":
		return a.reset(ctx, rest)
	case "list":
		return a.list(ctx, rest)
	case "add":
		return a.add(ctx, rest)
	case "edit":
		return a.edit(ctx, rest)
	case "status":
		return a.status(ctx, rest)
	case "delete":
		return a.delete(ctx, rest)
	case "stats":
		return a.stats(ctx)
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n\n", cmd)
		fmt.Fprint(stderr, usage)
		return errReported
	}
}

// signingIn reports whether the command authenticates from scratch.
func (a *app) signingIn() bool {
	return a.cmd == "login" || a.cmd == "register"
}

// sessionEnded handles a 401 from the API. The hint is only shown when a
// signed-in session was actually lost.
func (a *app) sessionEnded(string) {
	if a.session == nil || !a.session.Authenticated() {
		return
	}
	a.session.Reset()
	if !a.signingIn() {
		fmt.Fprintln(a.errOut, "Your session has ended. Run \"zalogactl login\" to sign in again.")
	}
}

// prompt asks for a value when it was not given as a flag.
func (a *app) prompt(label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprintf(a.out, "%s: ", label)
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}

// requireSession fails unless a verified user is signed in.
func (a *app) requireSession() error {
	if !a.session.Authenticated() {
		fmt.Fprintln(a.errOut, "Not signed in. Run \"zalogactl login\" first.")
		return errReported
	}
	return nil
}

// newModel returns a loaded item list for the signed-in user.
func (a *app) newModel(ctx context.Context, opts ...inventory.Option) (*inventory.Model, error) {
	if err := a.requireSession(); err != nil {
		return nil, err
	}
	opts = append([]inventory.Option{inventory.WithNotifier(a)}, opts...)
	m := inventory.New(a.client, a.session, opts...)
	if err := m.Load(ctx); err != nil {
		return nil, errReported
	}
	return m, nil
}

// Success implements inventory.Notifier.
func (a *app) Success(msg string) { fmt.Fprintln(a.out, msg) }

// Error implements inventory.Notifier.
func (a *app) Error(msg string) { fmt.Fprintf(a.errOut, "error: %s\n", msg) }

// fail prints an API error with any field messages and marks it reported.
func (a *app) fail(err error) error {
	var verr *inventory.ValidationError
	fields := client.FieldErrors(err)
	if errors.As(err, &verr) {
		fields = verr.Errors
	}

	fmt.Fprintf(a.errOut, "error: %s\n", client.Message(err))
	for field, msgs := range fields {
		for _, msg := range msgs {
			fmt.Fprintf(a.errOut, "  %s: %s\n", field, msg)
		}
	}
	return errReported
}
