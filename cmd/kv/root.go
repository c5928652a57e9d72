package kv

import (
	"github.com/ValentinKolb/redikv/cmd/util"
	"github.com/ValentinKolb/redikv/resp/client"
	"github.com/spf13/cobra"
)

var (
	conn *client.Client

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:               "kv",
		Short:             "Perform key-value operations against a running server",
		PersistentPreRunE: setupClient,
		PersistentPostRun: teardownClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common connection flags to the KV command
	util.SetupClientFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(existsCmd)
	KeyValueCommands.AddCommand(incrByCmd)
	KeyValueCommands.AddCommand(rawCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupClient connects to the server
func setupClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	c, err := client.Dial(util.GetServerAddr(), util.GetClientTimeout())
	if err != nil {
		return err
	}
	conn = c
	return nil
}

// teardownClient closes the connection again
func teardownClient(_ *cobra.Command, _ []string) {
	if conn != nil {
		_ = conn.Close()
	}
}
