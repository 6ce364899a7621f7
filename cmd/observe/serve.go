package main

import (
	"context"
	stderrors "errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/vango-dev/observe/internal/config"
	"github.com/vango-dev/observe/internal/errors"
	"github.com/vango-dev/observe/internal/logging"
	"github.com/vango-dev/observe/pkg/inspector"
	"github.com/vango-dev/observe/pkg/metrics"
	"github.com/vango-dev/observe/pkg/observe"
	"github.com/vango-dev/observe/pkg/store"
	"github.com/vango-dev/observe/pkg/store/redis"
	"github.com/vango-dev/observe/pkg/store/s3store"
	"github.com/vango-dev/observe/pkg/tracing"
)

type serveOptions struct {
	configPath string
	addr       string
	readonly   bool
	debug      bool
}

func serveCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve [file.json]",
		Short: "Serve a JSON document through the inspector",
		Long: `Load a JSON document, wrap it and serve it over HTTP.

Reads and writes made through the API report the tracks and triggers
they cause. Events are kept for GET /events and streamed on /ws.

Configuration is read from observe.json or observe.yaml in the working
directory, or from --config.

Examples:
  observe serve
  observe serve state.json
  observe serve state.json --addr=0.0.0.0:7070 --readonly`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var file string
			if len(args) == 1 {
				file = args[0]
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, file, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to a configuration file")
	cmd.Flags().StringVarP(&opts.addr, "addr", "a", "", "Address to listen on (default from config)")
	cmd.Flags().BoolVar(&opts.readonly, "readonly", false, "Serve the document read only")
	cmd.Flags().BoolVarP(&opts.debug, "debug", "d", false, "Log every track and trigger")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, file string, opts serveOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.EffectiveLogLevel())
	if err != nil {
		return errors.New("C102").Wrap(err)
	}
	logger := logging.New(level, cfg.LogFormat)
	slog.SetDefault(logger)
	observe.SetLogger(logger)

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	doc, err := initialDocument(ctx, file, st, cfg.Store.Name)
	if err != nil {
		return err
	}

	srv := newServer(cfg, doc, st, logger)

	p := newPrinter(cmd.OutOrStdout(), noColorFlag(cmd))
	p.success("Serving %s on http://%s", describeSource(file), cfg.Inspector.Addr)
	p.info("Events:  ws://%s/ws", cfg.Inspector.Addr)
	if cfg.Metrics.Enabled {
		p.info("Metrics: http://%s/metrics", cfg.Inspector.Addr)
	}
	if st != nil {
		p.info("Store:   %s snapshot %q", cfg.Store.Driver, cfg.Store.Name)
	}
	if cfg.Inspector.Readonly {
		p.warn("Read only: writes are accepted but change nothing")
	}

	if err := srv.ListenAndServe(ctx, cfg.Inspector.Addr); err != nil {
		return errors.New("L201").Wrap(err)
	}
	return nil
}

// loadConfig reads the configuration and applies flag overrides.
func loadConfig(opts serveOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load(".")
	}
	if err != nil {
		return nil, err
	}

	if opts.addr != "" {
		cfg.Inspector.Addr = opts.addr
	}
	if opts.readonly {
		cfg.Inspector.Readonly = true
	}
	if opts.debug {
		cfg.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDocument reads the JSON document in file. An empty file name yields
// an empty object.
func loadDocument(file string) (*observe.Object, error) {
	if file == "" {
		return observe.NewObject(), nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.New("L200").WithPath(file)
		}
		return nil, errors.New("L200").WithPath(file).Wrap(err)
	}

	v, err := observe.FromJSON(data)
	if err != nil {
		return nil, errors.New("R006").WithPath(file).Wrap(err)
	}
	doc, ok := v.(*observe.Object)
	if !ok {
		return nil, errors.New("R006").WithPath(file).
			WithDetail("The document must be a JSON object or array.")
	}
	return doc, nil
}

// openStore opens the configured snapshot store, or returns nil when none
// is configured.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "file":
		files, err := store.NewFileStore(cfg.Dir)
		if err != nil {
			return nil, errors.New("L202").WithPath(cfg.Dir).Wrap(err)
		}
		return files, nil
	case "redis":
		var opts []redis.Option
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		if cfg.Redis.TTL != "" {
			ttl, err := time.ParseDuration(cfg.Redis.TTL)
			if err != nil {
				return nil, errors.New("C106").WithPath("store.redis.ttl").Wrap(err)
			}
			opts = append(opts, redis.WithTTL(ttl))
		}
		rs := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		if err := rs.Ping(ctx); err != nil {
			rs.Close()
			return nil, errors.New("L202").WithPath(cfg.Redis.Addr).Wrap(err)
		}
		return rs, nil
	case "s3":
		client := s3store.NewClient(cfg.S3.Region, cfg.S3.Endpoint)
		return s3store.New(client, cfg.S3.Bucket, cfg.S3.Prefix), nil
	}
	return nil, nil
}

// initialDocument picks the document to serve. A file argument wins and is
// saved to the store; otherwise the stored snapshot is used, falling back
// to an empty object.
func initialDocument(ctx context.Context, file string, st store.Store, name string) (*observe.Object, error) {
	if file != "" || st == nil {
		doc, err := loadDocument(file)
		if err != nil {
			return nil, err
		}
		if st != nil {
			if err := st.Save(ctx, name, doc); err != nil {
				return nil, errors.New("L202").Wrap(err)
			}
		}
		return doc, nil
	}

	doc, err := st.Load(ctx, name)
	if stderrors.Is(err, store.ErrNotFound) {
		return observe.NewObject(), nil
	}
	if err != nil {
		return nil, errors.New("L202").Wrap(err)
	}
	return doc, nil
}

// newServer builds the inspector with the observers cfg enables. st may be
// nil.
func newServer(cfg *config.Config, doc *observe.Object, st store.Store, logger *slog.Logger) *inspector.Server {
	opts := inspector.Options{
		Readonly:       cfg.Inspector.Readonly,
		AllowOrigins:   cfg.Inspector.AllowOrigins,
		EventBuffer:    cfg.Inspector.EventBuffer,
		MaxArrayLength: cfg.Inspector.MaxArrayLength,
		Store:          st,
		Snapshot:       cfg.Store.Name,
		Logger:         logger,
	}

	var observers []observe.Observer
	if cfg.Debug {
		observers = append(observers, observe.NewLogObserver(logger))
	}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		observers = append(observers, metrics.New(
			metrics.WithNamespace(cfg.Metrics.Namespace),
			metrics.WithRegistry(reg),
		))
		opts.Gatherer = reg
	}
	if cfg.Tracing.Enabled {
		opts.Tracer = tracing.New(tracing.WithTracerName(cfg.Tracing.TracerName))
	}
	if len(observers) > 0 {
		opts.Observer = observe.NewMultiObserver(observers...)
	}

	return inspector.New(doc, opts)
}

func describeSource(file string) string {
	if file == "" {
		return "an empty document"
	}
	return file
}
