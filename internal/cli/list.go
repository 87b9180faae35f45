package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/raphaelgruber/chatroom-go/internal/models"
	"github.com/spf13/cobra"
)

var listUser string

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "Manage rooms",
	Long: `List, inspect, create, update and delete rooms.

Examples:
  chatroom rooms list
  chatroom rooms list --user u1
  chatroom rooms get 6f1c...
  chatroom rooms create general --users u1,u2:Alice
  chatroom rooms update 6f1c... --title random
  chatroom rooms delete 6f1c... --force`,
}

var roomsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rooms, optionally only those a user belongs to",
	Args:  cobra.NoArgs,
	RunE:  runRoomsList,
}

var roomsGetCmd = &cobra.Command{
	Use:   "get <room-id>",
	Short: "Show a room with its full chat history",
	Args:  cobra.ExactArgs(1),
	RunE:  runRoomsGet,
}

func init() {
	roomsListCmd.Flags().StringVarP(&listUser, "user", "u", "", "only rooms this user id belongs to")

	roomsCmd.AddCommand(roomsListCmd)
	roomsCmd.AddCommand(roomsGetCmd)
	roomsCmd.AddCommand(roomsCreateCmd)
	roomsCmd.AddCommand(roomsUpdateCmd)
	roomsCmd.AddCommand(roomsDeleteCmd)
}

func runRoomsList(cmd *cobra.Command, args []string) error {
	rooms, err := apiClient.ListRooms(cmd.Context(), listUser)
	if err != nil {
		return fmt.Errorf("list rooms: %w", err)
	}

	p := newPrinter(cmd.OutOrStdout())
	if jsonOutput {
		if rooms == nil {
			rooms = []models.Room{}
		}
		return p.writeJSON(rooms)
	}

	if len(rooms) == 0 {
		fmt.Fprintln(p.w, "No rooms found.")
		return nil
	}

	fmt.Fprintf(p.w, "Found %d rooms:\n\n", len(rooms))
	for _, r := range rooms {
		fmt.Fprintf(p.w, "  %s %s\n", p.title(r.Title), p.hint("("+r.ID+")"))
		fmt.Fprintf(p.w, "    members: %s, chats: %d\n", memberList(r.Users), len(r.Chats))
	}
	return nil
}

func runRoomsGet(cmd *cobra.Command, args []string) error {
	room, err := apiClient.GetRoom(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get room: %w", err)
	}

	p := newPrinter(cmd.OutOrStdout())
	if jsonOutput {
		return p.writeJSON(room)
	}
	printRoom(p, room)
	return nil
}

func printRoom(p printer, room *models.Room) {
	fmt.Fprintf(p.w, "%s %s\n", p.title(room.Title), p.hint("("+room.ID+")"))
	fmt.Fprintf(p.w, "Members: %s\n", memberList(room.Users))

	if len(room.Chats) == 0 {
		fmt.Fprintln(p.w, p.hint("No messages yet."))
		return
	}
	fmt.Fprintln(p.w)
	for _, c := range room.Chats {
		printChat(p, c)
	}
}

func printChat(p printer, c models.Chat) {
	ts := c.CreatedAt.Local().Format(time.DateTime)
	fmt.Fprintf(p.w, "  %s %s: %s [%s]\n", p.hint(ts), c.UserID, c.Message, p.sentiment(c.Sentiment))
	if verbose {
		fmt.Fprintf(p.w, "    created_at: %s\n", c.CreatedAt.Format(time.RFC3339Nano))
	}
}

func memberList(users []models.Member) string {
	names := make([]string, 0, len(users))
	for _, u := range users {
		if u.Name != "" {
			names = append(names, fmt.Sprintf("%s (%s)", u.Name, u.ID))
			continue
		}
		names = append(names, u.ID)
	}
	return strings.Join(names, ", ")
}

// parseMembers reads "id[:name[:role]]" entries separated by commas.
func parseMembers(s string) []models.Member {
	var out []models.Member
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		m := models.Member{ID: strings.TrimSpace(parts[0])}
		if len(parts) > 1 {
			m.Name = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			m.Role = strings.TrimSpace(parts[2])
		}
		out = append(out, m)
	}
	return out
}
