package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/postcrab/postcrab/internal/config"
	"github.com/postcrab/postcrab/internal/highlight"
	"github.com/postcrab/postcrab/internal/httpclient"
	"github.com/postcrab/postcrab/internal/logging"
	"github.com/postcrab/postcrab/internal/request"
	"github.com/postcrab/postcrab/internal/telemetry"
	"github.com/postcrab/postcrab/internal/theme"
	"github.com/postcrab/postcrab/internal/ui"
)

// globalFlags apply to every command that sends requests.
type globalFlags struct {
	insecure bool
	proxy    string
	timeout  time.Duration
	follow   bool
	logLevel string
}

type tuiFlags struct {
	method      string
	contentType string
	url         string
	theme       string
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	var (
		global globalFlags
		tui    tuiFlags
	)

	root := &cobra.Command{
		Use:   "postcrab",
		Short: "Interactive HTTP client for the terminal",
		Long: heredoc.Doc(`
			PostCrab sends one HTTP request at a time and shows the response body.

			Pick a method and content type, type an address and an optional body,
			then press ctrl+s. Settings are read from settings.toml or settings.json
			in the config directory ($POSTCRAB_CONFIG_DIR overrides it).
		`),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, global, tui)
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.BoolVar(&global.insecure, "insecure", false, "Skip TLS certificate verification")
	pf.StringVar(&global.proxy, "proxy", "", "HTTP proxy URL")
	pf.DurationVar(&global.timeout, "timeout", 0, "Request timeout (0 keeps the transport default)")
	pf.BoolVar(&global.follow, "follow", true, "Follow redirects")
	pf.StringVar(&global.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	f := root.Flags()
	f.StringVar(&tui.method, "method", "", "Initial request method")
	f.StringVar(&tui.contentType, "content-type", "", "Initial content type (JSON, XML, Text, Form)")
	f.StringVar(&tui.url, "url", "", "Initial request address")
	f.StringVar(&tui.theme, "theme", "", "Theme key (dark, light or a file in <config>/themes)")

	root.AddCommand(newSendCmd(&global), newInitCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "postcrab %s (%s, %s)\n", version, commit, date)
		},
	}
}

// loadSettings reads the settings file; a broken file is reported and the
// defaults are used instead.
func loadSettings(errOut io.Writer) config.Settings {
	settings, _, err := config.LoadSettings()
	if err != nil {
		fmt.Fprintf(errOut, "postcrab: %v (using defaults)\n", err)
		return config.Settings{}
	}
	return settings
}

// clientOptions merges the settings file with explicitly set flags. A bad
// settings timeout is reported and ignored.
func clientOptions(cmd *cobra.Command, settings config.Settings, global globalFlags) httpclient.Options {
	opts := httpclient.DefaultOptions()

	timeout, err := settings.HTTP.TimeoutDuration()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "postcrab: %v (using no timeout)\n", err)
	}
	opts.Timeout = timeout
	opts.FollowRedirects = settings.HTTP.Follow()
	opts.InsecureSkipVerify = settings.HTTP.Insecure
	opts.ProxyURL = settings.HTTP.Proxy

	flags := cmd.Flags()
	if flags.Changed("timeout") {
		opts.Timeout = global.timeout
	}
	if flags.Changed("follow") {
		opts.FollowRedirects = global.follow
	}
	if flags.Changed("insecure") {
		opts.InsecureSkipVerify = global.insecure
	}
	if flags.Changed("proxy") {
		opts.ProxyURL = global.proxy
	}
	return opts
}

// openLogger builds the diagnostic logger. A bad level or an unwritable log
// file is reported on errOut and diagnostics are discarded instead.
func openLogger(errOut io.Writer, opts logging.Options) (logrus.FieldLogger, func() error) {
	logger, closeLog, err := logging.New(opts)
	if err != nil {
		fmt.Fprintf(errOut, "postcrab: %v (diagnostics disabled)\n", err)
		return logging.Discard(), func() error { return nil }
	}
	return logger, closeLog
}

func logLevel(settings config.Settings, global globalFlags) string {
	if global.logLevel != "" {
		return global.logLevel
	}
	return settings.LogLevel
}

// startTelemetry installs the tracer on client and returns its shutdown hook.
// Exporter failures are logged and leave the client untraced.
func startTelemetry(client *httpclient.Client, logger logrus.FieldLogger) func() {
	cfg := telemetry.ConfigFromEnv(os.Getenv)
	cfg.Version = version
	provider, err := telemetry.New(cfg)
	if err != nil {
		logger.WithError(err).Warn("telemetry disabled")
		return func() {}
	}
	client.SetTelemetry(provider)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("telemetry shutdown")
		}
	}
}

func runTUI(cmd *cobra.Command, global globalFlags, tui tuiFlags) error {
	settings := loadSettings(cmd.ErrOrStderr())

	logger, closeLog := openLogger(cmd.ErrOrStderr(), logging.Options{Level: logLevel(settings, global), File: settings.LogPath()})
	defer func() { _ = closeLog() }()

	opts := clientOptions(cmd, settings, global)

	var err error
	method := settings.Method()
	if tui.method != "" {
		if method, err = request.ParseMethod(tui.method); err != nil {
			return err
		}
	}
	contentType := settings.ContentType()
	if tui.contentType != "" {
		if contentType, err = request.ParseContentType(tui.contentType); err != nil {
			return err
		}
	}

	catalog, err := theme.LoadCatalog([]string{filepath.Join(config.Dir(), "themes")})
	if err != nil {
		logger.WithError(err).Warn("some themes could not be loaded")
	}
	themeKey := settings.DefaultTheme
	if tui.theme != "" {
		themeKey = tui.theme
	}
	if _, ok := catalog.Get(strings.ToLower(strings.TrimSpace(themeKey))); themeKey != "" && !ok {
		logger.WithField("available", strings.Join(catalog.Keys(), ", ")).Warnf("unknown theme %q", themeKey)
	}
	th := catalog.Resolve(themeKey)

	client := httpclient.NewClient(opts)
	client.SetLogger(logger)
	defer startTelemetry(client, logger)()

	model := ui.New(ui.Config{
		Dispatcher:  client,
		Theme:       &th,
		Highlight:   highlight.NewRenderer(settings.Highlight(), termenv.EnvColorProfile()),
		Method:      method,
		ContentType: contentType,
		URL:         tui.url,
		Version:     version,
		Logger:      logger,
	})

	logger.WithField("version", version).Info("starting postcrab")
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.OutOrStdout()))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
