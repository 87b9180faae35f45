package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/raphaelgruber/chatroom-go/internal/client"
	"github.com/raphaelgruber/chatroom-go/internal/models"
	"github.com/spf13/cobra"
)

var classifyKind string

var moderateCmd = &cobra.Command{
	Use:   "moderate <text...>",
	Short: "Check text against the moderation categories",
	Long: `Run a moderation check on text without storing anything.

Examples:
  chatroom moderate "some text to check"
  chatroom moderate --json you are the worst`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := apiClient.Moderate(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("moderate: %w", err)
		}
		return printClassification(newPrinter(cmd.OutOrStdout()), res)
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify <text...>",
	Short: "Classify text without posting it",
	Long: `Run a single classification on text without storing anything.

Examples:
  chatroom classify "what a lovely day"
  chatroom classify --kind moderation "some text"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := apiClient.Classify(cmd.Context(), strings.Join(args, " "), classifyKind)
		if err != nil {
			return fmt.Errorf("classify: %w", err)
		}
		return printClassification(newPrinter(cmd.OutOrStdout()), res)
	},
}

func init() {
	classifyCmd.Flags().StringVarP(&classifyKind, "kind", "k", "sentiment", "sentiment or moderation")
}

func printClassification(p printer, res *client.Classification) error {
	if jsonOutput {
		return p.writeJSON(res)
	}

	label := models.Sentiment(res.Label)
	if res.Kind == "moderation" && res.Flagged {
		label = models.SentimentFlagged
	}
	fmt.Fprintf(p.w, "%s: %s\n", res.Kind, p.sentiment(label))

	if len(res.Categories) > 0 {
		fmt.Fprintf(p.w, "  categories: %s\n", strings.Join(res.Categories, ", "))
	}
	if verbose && len(res.Scores) > 0 {
		names := make([]string, 0, len(res.Scores))
		for name := range res.Scores {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(p.w, "  %-24s %.4f\n", name, res.Scores[name])
		}
	}
	return nil
}
