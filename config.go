package main

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Seednode/screengames/games"
	"github.com/Seednode/screengames/games/pictionary"
	"github.com/Seednode/screengames/session"
)

var logFormats = []string{"text", "json"}

const minIdentityTimeout = time.Second

type Config struct {
	assetsDir       string
	bind            string
	game            string
	identityTimeout time.Duration
	logFormat       string
	maxBuffered     int
	port            int
	prefix          string
	profile         bool
	sendBuffer      int
	tlsCert         string
	tlsKey          string
	verbose         bool
	version         bool

	catalog games.Catalog
	logger  *logrus.Logger
}

func newCatalog() games.Catalog {
	return games.Catalog{
		pictionary.Name: pictionary.New,
	}
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.maxBuffered < 1 {
		return fmt.Errorf("invalid max buffered events (must be positive): %d", c.maxBuffered)
	}
	if c.sendBuffer < 1 {
		return fmt.Errorf("invalid send buffer (must be positive): %d", c.sendBuffer)
	}
	if c.identityTimeout < 0 || (c.identityTimeout > 0 && c.identityTimeout < minIdentityTimeout) {
		return fmt.Errorf("invalid identity timeout (must be 0 or at least %s): %s", minIdentityTimeout, c.identityTimeout)
	}
	if !slices.Contains(logFormats, c.logFormat) {
		return fmt.Errorf("invalid log format (must be one of %v): %q", logFormats, c.logFormat)
	}
	if _, err := c.catalog.Lookup(c.game); err != nil {
		return err
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SCREENGAMES")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfg.catalog == nil {
		cfg.catalog = newCatalog()
	}

	cmd := &cobra.Command{
		Use:           "screengames",
		Short:         "A shared drawing board party game, synchronized over websockets.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.assetsDir, "assets-dir", "", "directory of client assets to serve under /assets (env: SCREENGAMES_ASSETS_DIR)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: SCREENGAMES_BIND)")
	fs.StringVar(&cfg.game, "game", pictionary.Name, "game played in every room (env: SCREENGAMES_GAME)")
	fs.DurationVar(&cfg.identityTimeout, "identity-timeout", 0, "time before disconnected identities are forgotten, 0 to keep them (env: SCREENGAMES_IDENTITY_TIMEOUT)")
	fs.StringVar(&cfg.logFormat, "log-format", "text", "log output format, text or json (env: SCREENGAMES_LOG_FORMAT)")
	fs.IntVar(&cfg.maxBuffered, "max-buffered-events", session.DefaultMaxBuffered, "out-of-order events held per client before it is dropped (env: SCREENGAMES_MAX_BUFFERED_EVENTS)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: SCREENGAMES_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: SCREENGAMES_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: SCREENGAMES_PROFILE)")
	fs.IntVar(&cfg.sendBuffer, "send-buffer", 64, "outbound messages queued per client before it is dropped (env: SCREENGAMES_SEND_BUFFER)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: SCREENGAMES_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: SCREENGAMES_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: SCREENGAMES_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: SCREENGAMES_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("screengames v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
