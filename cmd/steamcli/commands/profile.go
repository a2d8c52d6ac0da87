package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"steamcommunity/community"
	"steamcommunity/lib/serviceutil"
)

var commentCount *int

func init() {
	rootCmd.AddCommand(aliasesCmd)
	rootCmd.AddCommand(contextsCmd)
	commentCount = commentsCmd.Flags().Int("count", 10, "How many comments to fetch.")
	rootCmd.AddCommand(commentsCmd)
}

var aliasesCmd = &cobra.Command{
	Use:   "aliases <steamid>",
	Short: "Lists a user's display name history.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		userID, err := community.ParseUserID(args[0])
		if err != nil {
			serviceutil.Fatal("invalid steamid", err)
		}

		aliases, err := createClient().GetUserAliases(cmd.Context(), userID)
		if err != nil {
			serviceutil.Fatal("failed to fetch aliases", err)
		}
		for _, alias := range aliases {
			slog.Info("alias", "name", alias.Name, "changed", alias.TimeChanged)
		}
	},
}

var contextsCmd = &cobra.Command{
	Use:   "contexts <steamid>",
	Short: "Lists the apps and contexts present in a user's inventory.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		userID, err := community.ParseUserID(args[0])
		if err != nil {
			serviceutil.Fatal("invalid steamid", err)
		}

		contexts, err := createClient().GetUserInventoryContexts(cmd.Context(), userID)
		if err != nil {
			serviceutil.Fatal("failed to fetch inventory contexts", err)
		}
		for _, app := range contexts {
			for _, appCtx := range app.Contexts {
				slog.Info("context",
					"appid", app.AppID,
					"app", app.Name,
					"context", appCtx.ID,
					"name", appCtx.Name,
					"assets", appCtx.AssetCount,
				)
			}
		}
	},
}

var commentsCmd = &cobra.Command{
	Use:   "comments <steamid> [--count <n>]",
	Short: "Lists the most recent comments on a user's profile.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		userID, err := community.ParseUserID(args[0])
		if err != nil {
			serviceutil.Fatal("invalid steamid", err)
		}

		comments, total, err := createClient().GetUserComments(
			cmd.Context(), userID, community.CommentsOptions{Count: *commentCount})
		if err != nil {
			serviceutil.Fatal("failed to fetch comments", err)
		}
		for _, comment := range comments {
			slog.Info("comment",
				"id", comment.ID,
				"author", comment.Author.Name,
				"time", comment.Time,
				"text", comment.Text,
			)
		}
		slog.Info("fetched comments", "shown", len(comments), "total", total)
	},
}
