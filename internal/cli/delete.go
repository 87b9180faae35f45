package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/raphaelgruber/chatroom-go/internal/client"
	"github.com/spf13/cobra"
)

var (
	deleteForce bool
)

var roomsDeleteCmd = &cobra.Command{
	Use:   "delete <room-id>",
	Short: "Delete a room and its chat history",
	Long: `Delete a room together with every chat in it.

Requires confirmation unless --force is used.

Examples:
  chatroom rooms delete 6f1c...
  chatroom rooms delete 6f1c... --force`,
	Args: cobra.ExactArgs(1),
	RunE: runRoomsDelete,
}

func init() {
	roomsDeleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "skip confirmation")
}

func runRoomsDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	room, err := apiClient.GetRoom(ctx, args[0])
	if err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("room not found: %s", args[0])
		}
		return fmt.Errorf("get room: %w", err)
	}

	// Confirm deletion
	if !deleteForce {
		fmt.Fprintf(w, "About to delete: %s (%s) with %d chats\n", room.Title, room.ID, len(room.Chats))
		fmt.Fprint(w, "\nContinue? [y/N]: ")

		reader := bufio.NewReader(cmd.InOrStdin())
		response, err := reader.ReadString('\n')
		if err != nil && response == "" {
			return fmt.Errorf("read input: %w", err)
		}
		response = strings.TrimSpace(strings.ToLower(response))

		if response != "y" && response != "yes" {
			fmt.Fprintln(w, "Cancelled.")
			return nil
		}
	}

	if err := apiClient.DeleteRoom(ctx, room.ID); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}

	fmt.Fprintf(w, "Deleted: %s\n", room.Title)
	return nil
}
