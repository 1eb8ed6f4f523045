package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cfg "github.com/exeNyx7/ethereal-sub001/config"
	"github.com/exeNyx7/ethereal-sub001/libs/cli"
	"github.com/exeNyx7/ethereal-sub001/libs/log"
)

var (
	conf   = cfg.DefaultConfig()
	logger = log.MustNewDefaultLogger(log.LogFormatPlain, log.LogLevelInfo)
)

// ParseConfig retrieves the default environment configuration, sets up the
// root and ensures that the root exists.
func ParseConfig() (*cfg.Config, error) {
	c := cfg.DefaultConfig()
	if err := viper.Unmarshal(c); err != nil {
		return nil, err
	}
	c.SetRoot(viper.GetString(cli.HomeFlag))
	if err := c.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("error in config file: %w", err)
	}
	return c, nil
}

// RootCmd is the root command. It reads the config and sets up the logger
// for every subcommand.
var RootCmd = &cobra.Command{
	Use:   "ethereald",
	Short: "Anonymous claim board with reputation-weighted resolution",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		conf, err = ParseConfig()
		if err != nil {
			return err
		}

		logger, err = log.NewDefaultLogger(conf.LogFormat, conf.LogLevel)
		if err != nil {
			return err
		}
		logger = logger.With("moniker", conf.Moniker)
		return nil
	},
}
