// Package cli provides the command-line interface for chatroom.
package cli

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/chatroom-go/internal/client"
	"github.com/raphaelgruber/chatroom-go/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose    bool
	jsonOutput bool
	serverURL  string

	// Global API client
	apiClient *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "chatroom",
	Short: "Chat room client",
	Long: `chatroom talks to a chatroom server: create rooms, post messages and
read them back with the sentiment label each message was stored with.

The server address comes from --server, CHATROOM_SERVER_URL or the
config file, in that order.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}

		url := serverURL
		if url == "" {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			url = cfg.ServerURL
		}
		apiClient = client.New(url)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of text")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server base URL")

	// Add subcommands
	rootCmd.AddCommand(roomsCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(moderateCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print client and server versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "chatroom %s\n", Version)

		serverVersion, err := apiClient.Health(cmd.Context())
		if err != nil {
			fmt.Fprintf(w, "server: unreachable (%v)\n", err)
			return nil
		}
		fmt.Fprintf(w, "server: %s\n", serverVersion)
		return nil
	},
}
