package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/redikv/cmd/kv"
	"github.com/ValentinKolb/redikv/cmd/serve"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.1"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "redikv",
		Short: "redis-compatible server on a distributed KV backend",
		Long: fmt.Sprintf(`redikv (v%s)

A redis-protocol-compatible server that stores strings, hashes, lists,
sets and sorted sets in a distributed transactional key-value backend.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of redikv",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("redikv v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
