package cli

import (
	"fmt"

	"github.com/raphaelgruber/chatroom-go/internal/models"
	"github.com/spf13/cobra"
)

var (
	updateTitle string
	updateUsers string
)

var roomsUpdateCmd = &cobra.Command{
	Use:   "update <room-id>",
	Short: "Change a room's title or members",
	Long: `Change a room's title and/or member list. Chat history is never modified.
The member list is replaced, not merged.

Examples:
  chatroom rooms update 6f1c... --title "random"
  chatroom rooms update 6f1c... --users u1,u3`,
	Args: cobra.ExactArgs(1),
	RunE: runRoomsUpdate,
}

func init() {
	roomsUpdateCmd.Flags().StringVarP(&updateTitle, "title", "t", "", "new title")
	roomsUpdateCmd.Flags().StringVar(&updateUsers, "users", "", "replacement members as id[:name[:role]], comma-separated")
}

func runRoomsUpdate(cmd *cobra.Command, args []string) error {
	var patch models.RoomPatch
	if cmd.Flags().Changed("title") {
		patch.Title = &updateTitle
	}
	if cmd.Flags().Changed("users") {
		users := parseMembers(updateUsers)
		if users == nil {
			users = []models.Member{}
		}
		patch.Users = &users
	}
	if patch.IsEmpty() {
		return fmt.Errorf("nothing to update: pass --title and/or --users")
	}

	room, err := apiClient.UpdateRoom(cmd.Context(), args[0], patch)
	if err != nil {
		return fmt.Errorf("update room: %w", err)
	}

	p := newPrinter(cmd.OutOrStdout())
	if jsonOutput {
		return p.writeJSON(room)
	}

	fmt.Fprintf(p.w, "Updated room: %s (%s)\n", p.title(room.Title), room.ID)
	fmt.Fprintf(p.w, "  Members: %s\n", memberList(room.Users))
	return nil
}
