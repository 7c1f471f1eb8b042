package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	var cfgPath string
	var root = &cobra.Command{
		Use:           "scout",
		Short:         "Personal content curation assistant",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config/config.yaml)")

	root.AddCommand(
		chatCMD(&cfgPath),
		serveCMD(&cfgPath),
		runCMD(&cfgPath),
		scheduleCMD(&cfgPath),
		topicsCMD(&cfgPath),
		hashPasswordCMD(),
	)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
