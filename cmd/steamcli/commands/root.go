package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"steamcommunity/community"
	"steamcommunity/lib/configutil"
	"steamcommunity/lib/serviceutil"
)

var rootCmd = &cobra.Command{
	Use:   "steamcli",
	Short: "steamcli inspects Steam Community profiles and inventories using an existing login session.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Config carries the session material steamcli needs; login happens
// elsewhere (e.g. in a browser) and the cookies get pasted here.
type Config struct {
	SteamID   string            `json:"steam_id"`
	SessionID string            `json:"session_id"`
	Cookies   map[string]string `json:"cookies"`
	// WebAPIKey enables the IEconService inventory source.
	WebAPIKey string `json:"web_api_key"`
}

func readConfig() Config {
	cfg, err := configutil.ReadConfig[Config]("steamcli.json5")
	if err != nil {
		serviceutil.Fatal("failed to read steamcli.json5", err)
	}
	return cfg
}

func createClient() *community.Client {
	cfg := readConfig()

	steamID, err := community.ParseUserID(cfg.SteamID)
	if err != nil {
		serviceutil.Fatal("invalid steam_id in config", err)
	}

	client, err := community.NewClient(community.ClientOptions{
		SteamID:   steamID,
		SessionID: cfg.SessionID,
	})
	if err != nil {
		serviceutil.Fatal("failed to initialize community client", err)
	}

	cookies := make([]*http.Cookie, 0, len(cfg.Cookies))
	for name, value := range cfg.Cookies {
		cookies = append(cookies, &http.Cookie{Name: name, Value: value})
	}
	client.SetCookies(cookies)

	return client
}
