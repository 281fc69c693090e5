package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yarkm13/seviper/internal/config"
	"github.com/yarkm13/seviper/internal/crawl"
	"github.com/yarkm13/seviper/internal/logging"
	"github.com/yarkm13/seviper/internal/metrics"
	"github.com/yarkm13/seviper/internal/prompt"
	"github.com/yarkm13/seviper/internal/storage"
)

const (
	exitCodeSuccess = iota
	exitCodeConfigError
	exitCodePromptError
	exitCodeConnectError
	exitCodeStorageError
	exitCodeCancelled
)

// exitError carries the process exit code out of the command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func fail(code int, err error) error {
	return &exitError{code: code, err: err}
}

// connectError means the session could not be opened; the run cannot go on.
type connectError struct {
	Address string
	Err     error
}

func (e *connectError) Error() string {
	return fmt.Sprintf("connection to %s failed: %v", e.Address, e.Err)
}

func (e *connectError) Unwrap() error { return e.Err }

// streams are the terminal the command talks to.
type streams struct {
	in             io.Reader
	out            io.Writer
	errOut         io.Writer
	passwordReader func() ([]byte, error) // nil reads passwords as plain lines
}

func newRootCommand(cfg *config.Config, s streams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seviper [url]",
		Short: "Mirror files from an FTP or SFTP server, breadth first",
		Long: `seviper walks the directory tree of an FTP or SFTP server breadth first,
up to a number of directories, and downloads every regular file or only the
ones ending with a chosen extension into a flat local directory or S3 bucket.

Values not given as flags, SEVIPER_* variables or in the URL are asked for.`,
		Example: `  seviper ftp://ftp.example.com/pub --ext .pdf --depth 5
  seviper sftp://alice@files.example.com --all --target s3://mirror/files`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Resolve(cmd.Flags(), cfg); err != nil {
				return fail(exitCodeConfigError, err)
			}
			if len(args) == 1 {
				if err := cfg.ApplyURL(args[0]); err != nil {
					return fail(exitCodeConfigError, err)
				}
			}
			return run(cmd.Context(), cfg, s)
		},
	}
	config.BindFlags(cmd.Flags(), cfg)
	return cmd
}

func run(ctx context.Context, cfg *config.Config, s streams) error {
	log, closeLog, err := logging.New(logging.Config{Level: cfg.LogLevel, File: cfg.LogFile, Out: s.errOut})
	if err != nil {
		return fail(exitCodeConfigError, fmt.Errorf("failed to open log file: %w", err))
	}
	defer closeLog()
	defer func() { _ = log.Sync() }()

	var opts []prompt.Option
	if s.passwordReader != nil {
		opts = append(opts, prompt.WithPasswordReader(s.passwordReader))
	}
	p := prompt.New(s.in, s.out, log, opts...)

	if err := askMissing(cfg, p); err != nil {
		log.Error("Error reading input", zap.Error(err))
		return fail(exitCodePromptError, err)
	}
	if err := cfg.Validate(); err != nil {
		return fail(exitCodeConfigError, err)
	}

	store, err := storage.Open(ctx, cfg.Target, storage.Options{S3: cfg.S3})
	if err != nil {
		log.Error("Error opening storage", zap.String("target", cfg.Target), zap.Error(err))
		return fail(exitCodeStorageError, err)
	}

	source := cfg.SourceURL()
	if !cfg.AssumeYes {
		ok, err := confirmTarget(p, source, store.Location())
		if err != nil {
			return fail(exitCodePromptError, err)
		}
		if !ok {
			log.Info("Operation cancelled by user.")
			return nil
		}
	}

	dialURL := &url.URL{Scheme: cfg.Scheme, Host: cfg.Address()}
	if cfg.User != "" {
		dialURL.User = url.User(cfg.User)
	}
	factory := getConnectorFactory(dialURL)
	if factory == nil {
		return fail(exitCodeConfigError, fmt.Errorf("no connector available for scheme %q (supported: %s)", cfg.Scheme, supportedSchemes()))
	}

	password := []byte(cfg.Password)
	cfg.Password = ""
	defer secureWipe(password)

	var conn Connector
	defer func() { finalizeConnection(conn, log) }()

	conn, err = factory.Create(ctx, dialParams{
		URL:      dialURL,
		Password: password,
		Timeout:  cfg.Timeout,
		Log:      log,
		Prompter: p,
	})
	if err != nil {
		log.Error("Error initiating connection", zap.String("protocol", factory.Name()), zap.Error(err))
		return fail(exitCodeConnectError, &connectError{Address: cfg.Address(), Err: err})
	}

	var walkerOpts []crawl.Option
	var manifest *Manifest
	stopAutosave := func() {}
	if cfg.Manifest != "" {
		manifest = newManifest(cfg.Manifest, source, store.Location())
		walkerOpts = append(walkerOpts, crawl.WithFetchHook(manifest.Record))
		autosaveCtx, cancel := context.WithCancel(ctx)
		stopAutosave = cancel
		go manifest.autosave(autosaveCtx, manifestAutosaveInterval, log)
	}

	walker := crawl.NewWalker(conn, crawl.NewSink(store, log), cfg.Crawl, log, walkerOpts...)
	stats := walker.Run(ctx)

	stopAutosave()
	if manifest != nil {
		if err := manifest.Save(); err != nil {
			log.Warn("Error saving manifest", zap.String("file", cfg.Manifest), zap.Error(err))
		}
	}
	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Warn("Error writing metrics", zap.String("file", cfg.MetricsFile), zap.Error(err))
		}
	}

	printSummary(s.out, stats, store.Location())

	if stats.Cancelled {
		return fail(exitCodeCancelled, context.Cause(ctx))
	}
	return nil
}

// askMissing prompts for whatever flags, variables and the URL left open.
func askMissing(cfg *config.Config, p *prompt.Prompter) error {
	if cfg.Host == "" {
		conn, err := p.Connection(config.DefaultPort(cfg.Scheme))
		if err != nil {
			return err
		}
		cfg.Host, cfg.Port = conn.Host, conn.Port
		cfg.User, cfg.Password = conn.User, conn.Password
	} else if cfg.User != "" && cfg.Password == "" {
		pw, err := p.Password(fmt.Sprintf("Password for %s: ", cfg.User))
		if err != nil {
			return err
		}
		cfg.Password = pw
	}

	if !cfg.ExtensionSet {
		all, ext, err := p.DownloadFilter()
		if err != nil {
			return err
		}
		cfg.Crawl.DownloadAll, cfg.Crawl.ExtensionFilter = all, ext
		cfg.ExtensionSet = true
	}
	if !cfg.DepthSet {
		depth, err := p.MaxDepth()
		if err != nil {
			return err
		}
		cfg.Crawl.MaxDepth = depth
		cfg.DepthSet = true
	}
	return nil
}

// finalizeConnection closes conn if one was opened. A close error is only
// logged.
func finalizeConnection(conn Connector, log *zap.Logger) {
	if conn == nil {
		return
	}
	if err := conn.Close(); err != nil {
		log.Warn("Error closing connection", zap.Error(err))
		return
	}
	log.Info("Connection closed")
}

// execute runs cmd and maps its error to an exit code.
func execute(ctx context.Context, cmd *cobra.Command, errOut io.Writer) int {
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitCodeSuccess
	}
	fmt.Fprintf(errOut, "Error: %v\n", err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitCodeConfigError
}
