// Package commands implements the rangefs command-line interface.
package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/justapithecus/rangefs/internal/config"
	"github.com/justapithecus/rangefs/internal/logging"
	"github.com/justapithecus/rangefs/rangefs"
	"github.com/justapithecus/rangefs/rangefs/backend"
)

// dialFunc builds a transport from connection settings.
type dialFunc func(ctx context.Context, cfg rangefs.ConnectionConfig) (rangefs.Transport, error)

// app carries state shared by one command invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	dial    dialFunc

	cfg       config.Config
	log       zerolog.Logger
	logCloser io.Closer
	transport rangefs.Transport
}

// NewRootCmd returns the rangefs command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(backend.Dial)
}

func newRootCmd(dial dialFunc) *cobra.Command {
	a := &app{v: config.New(), dial: dial, log: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "rangefs",
		Short: "Browse and read objects in S3-compatible stores",
		Long: `rangefs enumerates the buckets of an S3-compatible store and reads objects
through HTTP range requests, one request per read.`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default searches ./config.yaml, ./.rangefs and $HOME/.rangefs)")
	flags.String("backend", "", "store backend: "+strings.Join(backend.Names, " or "))
	flags.String("endpoint", "", "custom endpoint URL, e.g. http://localhost:9000")
	flags.String("region", "", "store region")
	flags.Bool("path-style", false, "use path-style bucket addressing")
	flags.Bool("insecure", false, "disable TLS for endpoints given without a scheme")
	flags.Duration("timeout", 0, "per-request timeout")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error")
	flags.String("log-format", "", "log format: console or json")

	cobra.CheckErr(bindFlags(a.v, flags, map[string]string{
		"connection.backend":        "backend",
		"connection.endpoint":       "endpoint",
		"connection.region":         "region",
		"connection.use_path_style": "path-style",
		"connection.insecure":       "insecure",
		"connection.timeout":        "timeout",
		"log.level":                 "log-level",
		"log.format":                "log-format",
	}))

	root.AddCommand(
		newLsCmd(a),
		newCatCmd(a),
		newHandleCmd(a),
		newExportCmd(a),
		newScanCmd(a),
	)
	return root
}

// setup loads configuration and builds the logger before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, used, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, closer, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.log = logger.With().Str("cmd", cmd.Name()).Logger()
	a.logCloser = closer

	if used != "" {
		a.log.Debug().Str("file", used).Msg("using config file")
	}
	return nil
}

func (a *app) teardown(*cobra.Command, []string) error {
	if a.logCloser != nil {
		return a.logCloser.Close()
	}
	return nil
}

// connect dials the configured store once per invocation.
func (a *app) connect(ctx context.Context) (rangefs.Transport, error) {
	if a.transport != nil {
		return a.transport, nil
	}
	t, err := a.dial(ctx, a.cfg.Connection)
	if err != nil {
		return nil, fmt.Errorf("connect to %s backend: %w", a.cfg.Connection.Backend, err)
	}
	a.log.Debug().
		Str("backend", t.Name()).
		Str("endpoint", a.cfg.Connection.Endpoint).
		Msg("transport ready")
	a.transport = t
	return t, nil
}

// enumerate builds a catalog of the named containers, or of every container
// when none are named.
func (a *app) enumerate(ctx context.Context, containers []string) (*rangefs.Catalog, error) {
	t, err := a.connect(ctx)
	if err != nil {
		return nil, err
	}
	opts := []rangefs.CatalogOption{rangefs.WithCatalogLogger(a.log)}
	if len(containers) > 0 {
		opts = append(opts, rangefs.WithContainers(containers...))
	}
	builder, err := rangefs.NewCatalogBuilder(t, opts...)
	if err != nil {
		return nil, err
	}
	return builder.Enumerate(ctx)
}

// stat resolves container/key to a handle carrying the current size.
func (a *app) stat(ctx context.Context, container, key string) (rangefs.Handle, rangefs.Transport, error) {
	t, err := a.connect(ctx)
	if err != nil {
		return rangefs.Handle{}, nil, err
	}
	obj, err := t.Stat(ctx, container, key)
	if err != nil {
		return rangefs.Handle{}, nil, fmt.Errorf("stat %s/%s: %w", container, key, err)
	}
	return rangefs.NewHandle(t.Name(), container, obj), t, nil
}

// bindFlags binds config keys to flags; a flag only wins when it is set.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// formatsForPath picks a codec and compressor from a handle-list file name,
// e.g. "handles.parquet.zst" or "handles.jsonl.gz".
func formatsForPath(path string) (rangefs.Codec, rangefs.Compressor, error) {
	comp := rangefs.CompressorForKey(path)
	base := strings.TrimSuffix(path, comp.Extension())

	name := "jsonl"
	if filepath.Ext(base) == ".parquet" {
		name = "parquet"
	}
	codec, err := rangefs.CodecFor(name)
	if err != nil {
		return nil, nil, err
	}
	return codec, comp, nil
}
