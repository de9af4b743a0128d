package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	allowedOrigins  []string
	bind            string
	catalog         string
	frontendURL     string
	port            int
	prefix          string
	profile         bool
	sendBuffer      int
	sessionTimeout  time.Duration
	tlsCert         string
	tlsKey          string
	uniqueRoomCodes bool
	verbose         bool
	version         bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.sendBuffer < 1 {
		return fmt.Errorf("invalid send buffer (must be at least 1): %d", c.sendBuffer)
	}
	if c.sessionTimeout < 0 {
		return fmt.Errorf("invalid session timeout (must not be negative): %s", c.sessionTimeout)
	}
	if c.frontendURL != "" {
		u, err := url.Parse(c.frontendURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid frontend url: %q", c.frontendURL)
		}
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// origins is the browser origin allowlist, including the frontend itself.
func (c *Config) origins() []string {
	origins := make([]string, 0, len(c.allowedOrigins)+1)
	for _, o := range c.allowedOrigins {
		if o = strings.TrimSuffix(strings.TrimSpace(o), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) > 0 && c.frontendURL != "" {
		origins = append(origins, strings.TrimSuffix(c.frontendURL, "/"))
	}
	return origins
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("WHOSTHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "whosthat",
		Short:         "Game server for a two-player guess-the-character deduction game.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return Serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringSliceVar(&cfg.allowedOrigins, "allowed-origins", nil, "browser origins allowed to connect, \"*.domain\" for subdomains; empty allows any (env: WHOSTHAT_ALLOWED_ORIGINS)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: WHOSTHAT_BIND)")
	fs.StringVar(&cfg.catalog, "catalog", "", "path to a JSON character catalog, replacing the built-in one (env: WHOSTHAT_CATALOG)")
	fs.StringVar(&cfg.frontendURL, "frontend-url", "", "public URL of the game client, used for join links (env: WHOSTHAT_FRONTEND_URL)")
	fs.IntVarP(&cfg.port, "port", "p", 3001, "port to listen on (env: WHOSTHAT_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: WHOSTHAT_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: WHOSTHAT_PROFILE)")
	fs.IntVar(&cfg.sendBuffer, "send-buffer", 32, "outbound events queued per connection before it is dropped (env: WHOSTHAT_SEND_BUFFER)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 0, "time before idle rooms are closed, 0 to keep them forever (env: WHOSTHAT_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: WHOSTHAT_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: WHOSTHAT_TLS_KEY)")
	fs.BoolVar(&cfg.uniqueRoomCodes, "unique-room-codes", false, "reject room codes already in use instead of replacing the older room (env: WHOSTHAT_UNIQUE_ROOM_CODES)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: WHOSTHAT_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: WHOSTHAT_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("whosthat v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
