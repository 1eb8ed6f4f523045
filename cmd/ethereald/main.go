package main

import (
	"os"
	"path/filepath"

	"github.com/exeNyx7/ethereal-sub001/cmd/ethereald/commands"
	"github.com/exeNyx7/ethereal-sub001/config"
	"github.com/exeNyx7/ethereal-sub001/libs/cli"
)

func main() {
	rootCmd := commands.RootCmd
	rootCmd.AddCommand(
		commands.StartCmd,
		commands.VersionCmd,
	)

	baseCmd := cli.PrepareBaseCmd(rootCmd, "ETHEREAL",
		os.ExpandEnv(filepath.Join("$HOME", config.DefaultEtherealDir)))
	if err := baseCmd.Execute(); err != nil {
		os.Exit(2)
	}
}
