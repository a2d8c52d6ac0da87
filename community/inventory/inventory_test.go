package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leighmacdonald/steamid/v4/steamid"
	"github.com/stretchr/testify/require"

	"steamcommunity/community"
	"steamcommunity/lib/telemetry"
)

const (
	selfSteam64  = uint64(76561197960287930)
	otherSteam64 = uint64(76561198006409530)
)

func newTestClient(t testing.TB, baseURL string, onExpired func(error)) *Client {
	core, err := community.NewClient(community.ClientOptions{
		BaseUrl:          baseURL,
		SteamID:          steamid.New(selfSteam64),
		SessionID:        "testsession",
		OnSessionExpired: onExpired,
	})
	require.NoError(t, err)

	return NewClient(core, ClientOptions{
		Retry:              RetryPolicy{Retries: 2, WaitTime: 1, MaxWaitTime: 1},
		WebAPIBaseUrl:      baseURL,
		SteamApisBaseUrl:   baseURL,
		SteamSupplyBaseUrl: baseURL,
		RapidAPIBaseUrl:    baseURL,
	})
}

func testOptions(user uint64) Options {
	return Options{
		UserID:    steamid.New(user),
		AppID:     440,
		ContextID: 2,
	}
}

func descJSON(classID, instanceID string, tradable int) map[string]any {
	return map[string]any{
		"classid":     classID,
		"instanceid":  instanceID,
		"appid":       440,
		"name":        "item " + classID,
		"market_name": "item " + classID,
		"tradable":    tradable,
	}
}

func assetJSON(assetID, classID, instanceID string) map[string]any {
	return map[string]any{
		"assetid":    assetID,
		"classid":    classID,
		"instanceid": instanceID,
		"contextid":  "2",
		"amount":     "1",
	}
}

func TestContentsPagination(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:community/inventory")
	defer cleanup()

	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		require.Equal(t, fmt.Sprintf("/inventory/%d/440/2", otherSteam64), r.URL.Path)
		require.Equal(t, "english", r.URL.Query().Get("l"))
		require.Equal(t, "2000", r.URL.Query().Get("count"))

		switch r.URL.Query().Get("start_assetid") {
		case "":
			json.NewEncoder(w).Encode(map[string]any{
				"success": 1,
				"assets": []any{
					assetJSON("1", "10", "0"),
					assetJSON("2", "11", "0"),
				},
				"descriptions": []any{
					descJSON("10", "0", 1),
					descJSON("11", "0", 1),
				},
				"more_items":            1,
				"last_assetid":          "100",
				"total_inventory_count": 5,
			})
		case "100":
			json.NewEncoder(w).Encode(map[string]any{
				"success": 1,
				"assets": []any{
					assetJSON("100", "10", "0"),
					assetJSON("101", "12", "0"),
					assetJSON("102", "12", "0"),
				},
				"descriptions": []any{
					descJSON("12", "0", 1),
				},
				"total_inventory_count": 5,
			})
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("start_assetid"))
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	result, err := client.Contents(context.Background(), testOptions(otherSteam64))
	require.NoError(t, err)
	require.Equal(t, 2, requests)

	require.Len(t, result.Items, 5)
	require.Empty(t, result.Currencies)
	require.Equal(t, 5, result.TotalCount)

	for i, item := range result.Items {
		require.Equal(t, i+1, item.Position)
	}
	require.Equal(t,
		[]string{"1", "2", "100", "101", "102"},
		[]string{
			result.Items[0].AssetID, result.Items[1].AssetID, result.Items[2].AssetID,
			result.Items[3].AssetID, result.Items[4].AssetID,
		})

	// assets 1 and 100 share classid 10, so they must resolve to the same
	// cached description even though it only appeared on the first page
	require.Equal(t, result.Items[0].Description, result.Items[2].Description)
	require.Equal(t, result.Items[3].Description, result.Items[4].Description)
	require.Equal(t, "item 10", result.Items[2].Name)
}

func TestContentsEmptyInventory(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:community/inventory")
	defer cleanup()

	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		json.NewEncoder(w).Encode(map[string]any{
			"success":               1,
			"total_inventory_count": 0,
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	result, err := client.Contents(context.Background(), testOptions(otherSteam64))
	require.NoError(t, err)
	require.Equal(t, 1, requests)
	require.Empty(t, result.Items)
	require.Empty(t, result.Currencies)
	require.Equal(t, 0, result.TotalCount)
}

func TestContentsMalformedEnvelope(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:community/inventory")
	defer cleanup()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success":               1,
			"total_inventory_count": 3,
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	_, err := client.Contents(context.Background(), testOptions(otherSteam64))
	require.ErrorIs(t, err, community.ErrMalformedResponse)
}

func TestContentsMissingDescription(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:community/inventory")
	defer cleanup()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success":               1,
			"assets":                []any{assetJSON("1", "10", "0")},
			"descriptions":          []any{descJSON("99", "0", 1)},
			"total_inventory_count": 1,
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	_, err := client.Contents(context.Background(), testOptions(otherSteam64))
	require.ErrorIs(t, err, community.ErrMalformedResponse)
}

func TestContentsTradableOnly(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:community/inventory")
	defer cleanup()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": 1,
			"assets": []any{
				assetJSON("1", "10", "0"),
				assetJSON("2", "11", "0"),
				assetJSON("3", "10", "0"),
			},
			"descriptions": []any{
				descJSON("10", "0", 1),
				descJSON("11", "0", 0),
			},
			"total_inventory_count": 3,
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	opts := testOptions(otherSteam64)
	opts.TradableOnly = true
	result, err := client.Contents(context.Background(), opts)
	require.NoError(t, err)

	require.Len(t, result.Items, 2)
	require.Equal(t, "1", result.Items[0].AssetID)
	require.Equal(t, "3", result.Items[1].AssetID)
	// positions stay contiguous when the filter drops an item
	require.Equal(t, 1, result.Items[0].Position)
	require.Equal(t, 2, result.Items[1].Position)
	for _, item := range result.Items {
		require.True(t, bool(item.Tradable))
	}
}

func TestContentsPrivateProfile(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:community/inventory")
	defer cleanup()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("null"))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	_, err := client.Contents(context.Background(), testOptions(otherSteam64))
	require.ErrorIs(t, err, community.ErrPrivateProfile)
}

func TestContentsOwnInventoryPrivateMeansSessionExpired(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:community/inventory")
	defer cleanup()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("null"))
	}))
	defer srv.Close()

	var notified error
	client := newTestClient(t, srv.URL, func(err error) { notified = err })
	_, err := client.Contents(context.Background(), testOptions(selfSteam64))
	require.ErrorIs(t, err, community.ErrSessionExpired)
	require.ErrorIs(t, notified, community.ErrSessionExpired)
}

func TestContentsUpstreamEResult(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:community/inventory")
	defer cleanup()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"error": "Duplicate request (29)"})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	_, err := client.Contents(context.Background(), testOptions(otherSteam64))

	var upstream *community.UpstreamError
	require.ErrorAs(t, err, &upstream)
	require.Equal(t, "Duplicate request", upstream.Message)
	require.Equal(t, 29, upstream.EResult)
}

func TestContentsCurrencyRouting(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:community/inventory")
	defer cleanup()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		currency := assetJSON("7", "20", "0")
		currency["currencyid"] = "7"
		currency["amount"] = "2500"
		json.NewEncoder(w).Encode(map[string]any{
			"success": 1,
			"assets": []any{
				assetJSON("1", "10", "0"),
				currency,
			},
			"descriptions": []any{
				descJSON("10", "0", 1),
				descJSON("20", "0", 1),
			},
			"total_inventory_count": 2,
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	result, err := client.Contents(context.Background(), testOptions(otherSteam64))
	require.NoError(t, err)

	require.Len(t, result.Items, 1)
	require.Len(t, result.Currencies, 1)
	require.True(t, result.Currencies[0].IsCurrency)
	require.Equal(t, int64(2500), result.Currencies[0].Amount)
	// positions are counted across both sequences in fetch order
	require.Equal(t, 1, result.Items[0].Position)
	require.Equal(t, 2, result.Currencies[0].Position)
}

func TestInvalidUserID(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:0", nil)
	_, err := client.Contents(context.Background(), Options{AppID: 440, ContextID: 2})

	var invalid *community.InvalidUserIDError
	require.ErrorAs(t, err, &invalid)
}
