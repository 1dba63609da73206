package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"xdao.co/cidnet/internal/logcfg"
	"xdao.co/cidnet/network"
	"xdao.co/cidnet/network/netconfig"

	_ "xdao.co/cidnet/storage/boltstore"
	_ "xdao.co/cidnet/storage/grpcstore"
	_ "xdao.co/cidnet/storage/localfs"
	_ "xdao.co/cidnet/storage/memstore"
)

type app struct {
	v   *viper.Viper
	log zerolog.Logger
	net *network.Network
}

// ensureNetwork builds the network described by --network once per invocation.
func (a *app) ensureNetwork() (*network.Network, error) {
	if a.net != nil {
		return a.net, nil
	}
	path := a.v.GetString("network")
	if path == "" {
		return nil, errors.New("missing --network (JSON or TOML node layout)")
	}
	cfg, err := netconfig.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("network config: %w", err)
	}
	n, err := cfg.Build(network.WithLogger(a.log))
	if err != nil {
		return nil, err
	}
	a.net = n
	return n, nil
}

func (a *app) close() {
	if a.net != nil {
		if err := a.net.Close(); err != nil {
			a.log.Warn().Err(err).Msg("close network")
		}
		a.net = nil
	}
}

func (a *app) initLogger(stderr io.Writer) {
	cfg := logcfg.Load()
	if lvl := a.v.GetString("log_level"); lvl != "" {
		cfg.Level = lvl
	}
	if format := a.v.GetString("log_format"); format != "" {
		cfg.Format = format
	}
	a.log = logcfg.New(cfg, stderr)
}

func (a *app) initConfig(cfgFile string) error {
	if cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
	} else {
		a.v.SetConfigName("cidnet")
		a.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			a.v.AddConfigPath(filepath.Join(home, ".config", "cidnet"))
		}
	}
	a.v.SetEnvPrefix("CIDNET")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.v.AutomaticEnv()
	if err := a.v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &nf) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func bindConfig(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

func newRootCmd(a *app) *cobra.Command {
	a.v = viper.New()
	a.log = zerolog.Nop()

	var cfgFile string
	root := &cobra.Command{
		Use:           "cidnet",
		Short:         "Content-addressed replication network",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.initConfig(cfgFile); err != nil {
				return err
			}
			a.initLogger(cmd.ErrOrStderr())
			return nil
		},
	}

	fs := root.PersistentFlags()
	fs.StringVar(&cfgFile, "config", "", "settings file (TOML, YAML or JSON)")
	fs.String("network", "", "node layout file (JSON or TOML)")
	fs.String("log-level", "", "log level: debug|info|warn|error")
	fs.String("log-format", "", "log format: console|json")

	bindConfig(a.v, "network", fs.Lookup("network"))
	bindConfig(a.v, "log_level", fs.Lookup("log-level"))
	bindConfig(a.v, "log_format", fs.Lookup("log-format"))

	root.AddCommand(
		newDemoCmd(a),
		newPutCmd(a),
		newGetCmd(a),
		newHoldersCmd(a),
		newNodesCmd(a),
		newServeCmd(a),
	)
	return root
}
