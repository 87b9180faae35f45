package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var sendUser string

var sendCmd = &cobra.Command{
	Use:   "send <room-id> <message...>",
	Short: "Post a message to a room",
	Long: `Post a message to a room. The server labels it with a sentiment before
storing it; if classification is unavailable the message is stored as neutral.

Examples:
  chatroom send 6f1c... --user u1 hello everyone
  chatroom send 6f1c... -u u2 "this release is great"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVarP(&sendUser, "user", "u", "", "sender user id (required)")
	_ = sendCmd.MarkFlagRequired("user")
}

func runSend(cmd *cobra.Command, args []string) error {
	message := strings.Join(args[1:], " ")

	chat, err := apiClient.SendMessage(cmd.Context(), args[0], sendUser, message)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	p := newPrinter(cmd.OutOrStdout())
	if jsonOutput {
		return p.writeJSON(chat)
	}
	printChat(p, *chat)
	return nil
}
