package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"steamcommunity/community"
	"steamcommunity/lib/telemetry"
)

func legacyDescJSON(classID, instanceID string) map[string]any {
	return map[string]any{
		"classid":    classID,
		"instanceid": instanceID,
		"appid":      440,
		"name":       "item " + classID,
		"tradable":   1,
	}
}

func TestLegacyOrderingAndCount(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:community/inventory")
	defer cleanup()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, fmt.Sprintf("/profiles/%d/inventory/json/440/2", otherSteam64), r.URL.Path)

		switch r.URL.Query().Get("start") {
		case "":
			json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"rgInventory": map[string]any{
					// deliberately listed out of numeric order
					"110": map[string]any{"id": "110", "classid": "10", "instanceid": "0", "amount": "1"},
					"12":  map[string]any{"id": "12", "classid": "11", "instanceid": "0", "amount": "1"},
					"9":   map[string]any{"id": "9", "classid": "10", "instanceid": "0", "amount": "1"},
				},
				"rgDescriptions": map[string]any{
					"10_0": legacyDescJSON("10", "0"),
					"11_0": legacyDescJSON("11", "0"),
				},
				"rgCurrency": map[string]any{},
				"more":       true,
				"more_start": 3000,
			})
		case "3000":
			json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"rgInventory": map[string]any{
					"200": map[string]any{"id": "200", "classid": "11", "instanceid": "0", "amount": "1"},
				},
				"rgDescriptions": map[string]any{
					"11_0": legacyDescJSON("11", "0"),
				},
				"rgCurrency": map[string]any{},
				"more":       false,
				"more_start": false,
			})
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("start"))
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	result, err := client.Legacy(context.Background(), testOptions(otherSteam64))
	require.NoError(t, err)

	require.Len(t, result.Items, 4)
	require.Equal(t,
		[]string{"9", "12", "110", "200"},
		[]string{
			result.Items[0].AssetID, result.Items[1].AssetID,
			result.Items[2].AssetID, result.Items[3].AssetID,
		})
	for i, item := range result.Items {
		require.Equal(t, i+1, item.Position)
	}
	// the endpoint reports no total, so the count is what was fetched
	require.Equal(t, 4, result.TotalCount)
}

func TestLegacyCurrency(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:community/inventory")
	defer cleanup()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success":     true,
			"rgInventory": map[string]any{},
			"rgDescriptions": map[string]any{
				"20_0": legacyDescJSON("20", "0"),
			},
			"rgCurrency": map[string]any{
				"5": map[string]any{"id": "5", "classid": "20", "instanceid": "0", "amount": "1200"},
			},
			"more": false,
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	result, err := client.Legacy(context.Background(), testOptions(otherSteam64))
	require.NoError(t, err)
	require.Empty(t, result.Items)
	require.Len(t, result.Currencies, 1)
	require.True(t, result.Currencies[0].IsCurrency)
	require.Equal(t, int64(1200), result.Currencies[0].Amount)
}

func TestLegacyTradableOnlyParam(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:community/inventory")
	defer cleanup()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "1", r.URL.Query().Get("trading"))
		json.NewEncoder(w).Encode(map[string]any{
			"success":        true,
			"rgInventory":    map[string]any{},
			"rgDescriptions": map[string]any{},
			"rgCurrency":     map[string]any{},
			"more":           false,
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	opts := testOptions(otherSteam64)
	opts.TradableOnly = true
	_, err := client.Legacy(context.Background(), opts)
	require.NoError(t, err)
}

func TestLegacyUpstreamError(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:community/inventory")
	defer cleanup()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"Error":   "This profile is private.",
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	_, err := client.Legacy(context.Background(), testOptions(otherSteam64))

	var upstream *community.UpstreamError
	require.ErrorAs(t, err, &upstream)
	require.Equal(t, "This profile is private.", upstream.Message)
}

func TestWebAPIEnvelopeAndParams(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:community/inventory")
	defer cleanup()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/IEconService/GetInventoryItemsWithDescriptions/v1/", r.URL.Path)
		query := r.URL.Query()
		require.Equal(t, "secretkey", query.Get("key"))
		require.Equal(t, "440", query.Get("appid"))
		require.Equal(t, "2", query.Get("contextid"))
		require.Equal(t, fmt.Sprintf("%d", otherSteam64), query.Get("steamid"))
		require.Equal(t, "true", query.Get("get_descriptions"))

		json.NewEncoder(w).Encode(map[string]any{
			"response": map[string]any{
				"assets":                []any{assetJSON("1", "10", "0")},
				"descriptions":          []any{descJSON("10", "0", 1)},
				"total_inventory_count": 1,
			},
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	result, err := client.WebAPI(context.Background(), "secretkey", testOptions(otherSteam64))
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.Equal(t, 1, result.TotalCount)
}

func TestWebAPIInvalidKey(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:community/inventory")
	defer cleanup()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	_, err := client.WebAPI(context.Background(), "badkey", testOptions(otherSteam64))
	require.ErrorIs(t, err, community.ErrInvalidAPIKey)
}

func TestSteamApisRetriesTransientBody(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:community/inventory")
	defer cleanup()

	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		require.Equal(t, "mirrorkey", r.URL.Query().Get("api_key"))
		if requests == 1 {
			w.Write([]byte(`{"error":"Could not retrieve user inventory. Please try again later."}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success":               1,
			"assets":                []any{assetJSON("1", "10", "0")},
			"descriptions":          []any{descJSON("10", "0", 1)},
			"total_inventory_count": 1,
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	result, err := client.SteamApis(context.Background(), "mirrorkey", testOptions(otherSteam64))
	require.NoError(t, err)
	require.Equal(t, 2, requests)
	require.Len(t, result.Items, 1)
}

func TestSteamApisPrivateProfile(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:community/inventory")
	defer cleanup()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	_, err := client.SteamApis(context.Background(), "mirrorkey", testOptions(otherSteam64))
	require.ErrorIs(t, err, community.ErrPrivateProfile)
}

func TestSteamSupplyKeyClassification(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:community/inventory")
	defer cleanup()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/API/supplykey/loadinventory/", r.URL.Path)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("Invalid API key"))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	_, err := client.SteamSupply(context.Background(), "supplykey", testOptions(otherSteam64))
	require.ErrorIs(t, err, community.ErrInvalidAPIKey)
}

func TestSteamSupplyPrivateInventory(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:community/inventory")
	defer cleanup()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("Inventory Private"))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	_, err := client.SteamSupply(context.Background(), "supplykey", testOptions(otherSteam64))
	require.ErrorIs(t, err, community.ErrPrivateInventory)
}

func TestRapidAPIHeadersAndForbiddenMessage(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:community/inventory")
	defer cleanup()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "rapidkey", r.Header.Get("X-RapidAPI-Key"))
		require.NotEmpty(t, r.Header.Get("X-RapidAPI-Host"))
		json.NewEncoder(w).Encode(map[string]any{"message": "Forbidden"})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	_, err := client.RapidAPI(context.Background(), "rapidkey", testOptions(otherSteam64))
	require.ErrorIs(t, err, community.ErrInvalidAPIKey)
}

func TestRapidAPIRetriesRateLimit(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:community/inventory")
	defer cleanup()

	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success":               1,
			"assets":                []any{assetJSON("1", "10", "0")},
			"descriptions":          []any{descJSON("10", "0", 1)},
			"total_inventory_count": 1,
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	result, err := client.RapidAPI(context.Background(), "rapidkey", testOptions(otherSteam64))
	require.NoError(t, err)
	require.Equal(t, 2, requests)
	require.Len(t, result.Items, 1)
}
