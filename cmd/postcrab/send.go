package main

import (
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/postcrab/postcrab/internal/httpclient"
	"github.com/postcrab/postcrab/internal/logging"
	"github.com/postcrab/postcrab/internal/request"
	"github.com/postcrab/postcrab/internal/session"
)

type sendFlags struct {
	method      string
	contentType string
	data        string
	file        string
	include     bool
}

func newSendCmd(global *globalFlags) *cobra.Command {
	var flags sendFlags
	cmd := &cobra.Command{
		Use:   "send [url]",
		Short: "Send one request and print the response body",
		Long: heredoc.Doc(`
			Send one request without the interactive UI.

			The body is printed for every HTTP status. Validation and transport
			failures are printed to stderr and exit with status 1. Use -d - to
			read the body from stdin.
		`),
		Example: heredoc.Doc(`
			postcrab send https://httpbin.org/get
			postcrab send -X POST -d '{"name":"crab"}' https://httpbin.org/post
			postcrab send -f request.yaml
		`),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, *global, flags, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.method, "method", "X", "", "Request method (GET, POST, PUT, PATCH, DELETE)")
	f.StringVarP(&flags.contentType, "content-type", "t", "", "Content type (JSON, XML, Text, Form)")
	f.StringVarP(&flags.data, "data", "d", "", "Request body, or - to read it from stdin")
	f.StringVarP(&flags.file, "file", "f", "", "Request file (.yaml, .toml or .json)")
	f.BoolVarP(&flags.include, "include", "i", false, "Print the status line before the body")
	return cmd
}

// draftFor layers the request file, the settings defaults, the flags and the
// positional address, later sources winning.
func draftFor(cmd *cobra.Command, flags sendFlags, args []string) (request.Draft, error) {
	var draft request.Draft
	if flags.file != "" {
		loaded, err := request.LoadDraft(flags.file)
		if err != nil {
			return draft, err
		}
		draft = loaded
	}
	if flags.method != "" {
		draft.Method = flags.method
	}
	if flags.contentType != "" {
		draft.ContentType = flags.contentType
	}
	if cmd.Flags().Changed("data") {
		draft.Body = flags.data
		if flags.data == "-" {
			raw, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return draft, fmt.Errorf("read body from stdin: %w", err)
			}
			draft.Body = string(raw)
		}
	}
	if len(args) == 1 {
		draft.URL = args[0]
	}
	return draft, nil
}

func runSend(cmd *cobra.Command, global globalFlags, flags sendFlags, args []string) error {
	settings := loadSettings(cmd.ErrOrStderr())
	logger, closeLog := openLogger(cmd.ErrOrStderr(), logging.Options{
		Level:  logLevelOr(logLevel(settings, global), "warn"),
		Output: cmd.ErrOrStderr(),
	})
	defer func() { _ = closeLog() }()

	opts := clientOptions(cmd, settings, global)

	draft, err := draftFor(cmd, flags, args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(draft.Method) == "" {
		draft.Method = settings.Method().String()
	}
	if strings.TrimSpace(draft.ContentType) == "" {
		draft.ContentType = settings.ContentType().String()
	}
	method, contentType, err := draft.Selectors()
	if err != nil {
		return err
	}

	client := httpclient.NewClient(opts)
	client.SetLogger(logger)
	defer startTelemetry(client, logger)()

	sess := session.New(method, contentType)
	sess.SetURL(draft.URL)
	sess.SetBody(draft.Body)

	runner := session.NewRunner(sess, client)
	defer runner.Close()

	if _, err := runner.Send(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	res, err := runner.Wait(ctx)
	if err != nil {
		return err
	}
	if res.Outcome.Failed() {
		return errors.New(res.Outcome.Message)
	}

	out := cmd.OutOrStdout()
	if flags.include {
		fmt.Fprintln(out, res.Outcome.Status)
		fmt.Fprintln(out)
	}
	body := sess.Response()
	fmt.Fprint(out, body)
	if body != "" && !strings.HasSuffix(body, "\n") {
		fmt.Fprintln(out)
	}
	return nil
}

func logLevelOr(level, fallback string) string {
	if strings.TrimSpace(level) == "" {
		return fallback
	}
	return level
}
