package cli

import (
	"fmt"

	"github.com/raphaelgruber/chatroom-go/internal/models"
	"github.com/spf13/cobra"
)

var createUsers string

var roomsCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a room",
	Long: `Create a room with a title and at least one member.

Members are given as comma-separated id[:name[:role]] entries.

Examples:
  chatroom rooms create general --users u1,u2
  chatroom rooms create standup --users "u1:Alice:owner,u2:Bob"`,
	Args: cobra.ExactArgs(1),
	RunE: runRoomsCreate,
}

func init() {
	roomsCreateCmd.Flags().StringVar(&createUsers, "users", "", "members as id[:name[:role]], comma-separated")
}

func runRoomsCreate(cmd *cobra.Command, args []string) error {
	room, err := apiClient.CreateRoom(cmd.Context(), models.RoomInput{
		Title: args[0],
		Users: parseMembers(createUsers),
	})
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}

	p := newPrinter(cmd.OutOrStdout())
	if jsonOutput {
		return p.writeJSON(room)
	}

	fmt.Fprintf(p.w, "Created room: %s (%s)\n", p.title(room.Title), room.ID)
	if verbose {
		fmt.Fprintf(p.w, "  Members: %s\n", memberList(room.Users))
	}
	return nil
}
