package inventory

import (
	"bytes"
	"encoding/json"
	"fmt"

	"steamcommunity/community"
	"steamcommunity/econ"
)

// assetEntry matches the asset objects of every new-style endpoint.
type assetEntry struct {
	AssetID    string `json:"assetid"`
	ClassID    string `json:"classid"`
	InstanceID string `json:"instanceid"`
	ContextID  string `json:"contextid"`
	Amount     string `json:"amount"`
	CurrencyID string `json:"currencyid"`
}

// envelope is the page shape shared by the official endpoint and the
// mirrors; the web API nests the same fields under "response".
type envelope struct {
	Success             econ.Bool          `json:"success"`
	Assets              []assetEntry       `json:"assets"`
	Descriptions        []econ.Description `json:"descriptions"`
	MoreItems           econ.Bool          `json:"more_items"`
	LastAssetID         string             `json:"last_assetid"`
	TotalInventoryCount int                `json:"total_inventory_count"`

	Error    string    `json:"error"`
	ErrorAlt string    `json:"Error"`
	Message  string    `json:"message"`
	Info     string    `json:"info"`
	Redirect econ.Bool `json:"fake_redirect"`
}

func (e *envelope) errorMessage() string {
	if e.Error != "" {
		return e.Error
	}
	return e.ErrorAlt
}

func isNullBody(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func decodeEnvelope(body []byte) (*envelope, error) {
	if isNullBody(body) {
		return nil, community.ErrMalformedResponse
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", community.ErrMalformedResponse, err)
	}
	return &env, nil
}

// pageFromEnvelope validates one successful-looking page body. A zero
// reported total short-circuits the whole fetch; a success envelope
// missing either the asset list or the description list is malformed.
func pageFromEnvelope(env *envelope) (*page, error) {
	if env.Success && env.TotalInventoryCount == 0 && env.Assets == nil {
		return &page{empty: true}, nil
	}
	if !env.Success || env.Assets == nil || env.Descriptions == nil {
		if msg := env.errorMessage(); msg != "" {
			return nil, &community.UpstreamError{Message: msg}
		}
		return nil, community.ErrMalformedResponse
	}

	assets := make([]pageAsset, len(env.Assets))
	for i, entry := range env.Assets {
		assets[i] = pageAsset{
			assetID:    entry.AssetID,
			classID:    entry.ClassID,
			instanceID: entry.InstanceID,
			amount:     entry.Amount,
			currencyID: entry.CurrencyID,
		}
	}
	return &page{
		assets:       assets,
		descriptions: env.Descriptions,
		moreItems:    bool(env.MoreItems),
		nextStart:    env.LastAssetID,
		totalCount:   env.TotalInventoryCount,
	}, nil
}

func classifyPage(body []byte) (*page, error) {
	env, err := decodeEnvelope(body)
	if err != nil {
		return nil, err
	}
	return pageFromEnvelope(env)
}
