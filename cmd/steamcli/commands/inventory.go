package commands

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"steamcommunity/community"
	"steamcommunity/community/inventory"
	"steamcommunity/lib/serviceutil"
)

var (
	inventoryAppID        *uint32
	inventoryContextID    *uint64
	inventoryTradableOnly *bool
	inventoryLanguage     *string
	inventorySource       *string
)

func init() {
	inventoryAppID = inventoryCmd.Flags().Uint32("app", 440, "The app id of the inventory.")
	inventoryContextID = inventoryCmd.Flags().Uint64("context", 2, "The context id of the inventory.")
	inventoryTradableOnly = inventoryCmd.Flags().Bool("tradable", false, "Only list tradable items.")
	inventoryLanguage = inventoryCmd.Flags().String("lang", "english", "Language of the item descriptions.")
	inventorySource = inventoryCmd.Flags().String("source", "official",
		"The endpoint to fetch through: official, legacy or webapi (requires web_api_key in the config).")
	rootCmd.AddCommand(inventoryCmd)
}

var inventoryCmd = &cobra.Command{
	Use:   "inventory <steamid>",
	Short: "Lists the full contents of a user's inventory context.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		userID, err := community.ParseUserID(args[0])
		if err != nil {
			serviceutil.Fatal("invalid steamid", err)
		}

		cfg := readConfig()
		client := inventory.NewClient(createClient(), inventory.ClientOptions{})
		opts := inventory.Options{
			UserID:       userID,
			AppID:        *inventoryAppID,
			ContextID:    *inventoryContextID,
			TradableOnly: *inventoryTradableOnly,
			Language:     *inventoryLanguage,
		}

		t1 := time.Now()
		var result *inventory.Result
		switch *inventorySource {
		case "official":
			result, err = client.Contents(cmd.Context(), opts)
		case "legacy":
			result, err = client.Legacy(cmd.Context(), opts)
		case "webapi":
			result, err = client.WebAPI(cmd.Context(), cfg.WebAPIKey, opts)
		default:
			serviceutil.Fatal("unknown inventory source", fmt.Errorf("%q", *inventorySource))
		}
		if err != nil {
			serviceutil.Fatal("failed to fetch inventory", err)
		}

		for _, item := range result.Items {
			slog.Info("item",
				"position", item.Position,
				"assetid", item.AssetID,
				"name", item.Name,
				"amount", item.Amount,
				"tradable", bool(item.Tradable),
			)
		}
		for _, currency := range result.Currencies {
			slog.Info("currency",
				"position", currency.Position,
				"name", currency.Name,
				"amount", currency.Amount,
			)
		}
		slog.Info("fetched inventory",
			"total", result.TotalCount,
			"seconds", time.Since(t1).Seconds(),
		)
	},
}
