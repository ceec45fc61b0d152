package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/naveenspark/roster/internal/config"
	"github.com/naveenspark/roster/internal/logging"
	"github.com/naveenspark/roster/internal/tui"
	"github.com/naveenspark/roster/pkg/client"
	"github.com/naveenspark/roster/pkg/domain"
	"github.com/naveenspark/roster/pkg/session"
)

// cli holds the flags and the wiring shared by every command.
type cli struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	// Persistent flags
	configPath string
	apiURL     string
	logLevel   string
	jsonOutput bool

	cfg     *config.Config
	log     *slog.Logger
	client  *client.Client
	closers []func() error
}

// execute runs the CLI with args. Resources opened during setup are
// released even when the command fails.
func execute(in io.Reader, out, errOut io.Writer, args []string) error {
	c := &cli{in: in, out: out, errOut: errOut}
	root := newRootCmd(c)
	root.SetArgs(args)
	err := root.Execute()
	if cerr := c.close(); err == nil {
		err = cerr
	}
	return err
}

func newRootCmd(c *cli) *cobra.Command {
	in, out, errOut := c.in, c.out, c.errOut

	root := &cobra.Command{
		Use:   "roster",
		Short: "Manage companies and employees from the terminal",
		Long: `roster signs in to a company/employee management API and lets you browse,
add, edit and delete records. Run without arguments for the interactive UI.

Configuration is read from ~/.config/roster/config.yaml (or $ROSTER_CONFIG),
a .env file in the working directory, ROSTER_* environment variables and flags.`,
		SilenceUsage:  true,
		SilenceErrors: true, // main prints the error
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd.Root() == cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runTUI(cmd.Context())
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default $ROSTER_CONFIG or <user config dir>/roster/config.yaml)")
	flags.StringVar(&c.apiURL, "api-url", "", "API base URL, overrides api.url")
	flags.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVar(&c.jsonOutput, "json", false, "Output command results in JSON format")

	root.AddCommand(
		newLoginCmd(c),
		newLogoutCmd(c),
		newCompanyCmd(c),
		newEmployeeCmd(c),
		newVersionCmd(c),
	)
	return root
}

// setup loads configuration and builds the logger, session and client.
// The interactive UI owns the terminal, so it logs to a file instead.
func (c *cli) setup(interactive bool) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.apiURL != "" {
		cfg.API.URL = c.apiURL
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	c.cfg = cfg

	logCfg := logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: logging.ParseFormat(cfg.Log.Format),
		Output: c.errOut,
	}
	switch {
	case interactive:
		f, err := logging.OpenFile(cfg.LogFile())
		if err != nil {
			return err
		}
		c.closers = append(c.closers, f.Close)
		logCfg.Output = f
	case cfg.Log.Level == "":
		logCfg.Level = slog.LevelWarn
	}
	c.log = logging.New(logCfg)

	sess, err := c.openSession()
	if err != nil {
		return err
	}
	c.client = client.New(cfg.API.URL, sess,
		client.WithTimeout(cfg.API.Timeout),
		client.WithLogger(c.log),
		client.WithUserAgent("roster/"+version),
	)
	return nil
}

// openSession picks the token store. ROSTER_TOKEN wins over anything stored.
func (c *cli) openSession() (*session.Session, error) {
	if c.cfg.Token != "" {
		return session.NewMemory(c.cfg.Token), nil
	}
	switch c.cfg.Session.Backend {
	case config.BackendBolt:
		store, err := session.OpenBoltStore(filepath.Join(c.cfg.Session.Dir, "session.db"), c.cfg.Session.Key)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, store.Close)
		return session.New(store), nil
	default:
		return session.New(session.NewFileStore(c.cfg.Session.Dir, c.cfg.Session.Key)), nil
	}
}

func (c *cli) close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *cli) runTUI(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c.verifyToken(ctx)
	app := tui.NewApp(c.client, c.log)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

// verifyToken probes the API with the stored token. There is no identity
// endpoint, so page 1 of companies stands in. Only a 401 clears the token;
// network errors leave it for the UI to retry.
func (c *cli) verifyToken(ctx context.Context) {
	sess := c.client.Session()
	if _, ok := sess.Token(); !ok {
		return
	}
	_, err := c.client.Companies().List(ctx, 1)
	if errors.Is(err, domain.ErrUnauthorized) {
		c.log.Info("stored token rejected, signing in again")
		sess.ClearToken() //nolint:errcheck // the in-memory token is dropped regardless
	}
}

func newVersionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			c.printResult(map[string]string{"version": version}, func() {
				fmt.Fprintln(c.out, "roster "+version)
			})
			return nil
		},
	}
}
