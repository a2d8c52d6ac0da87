package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"

	"steamcommunity/community"
)

type webAPIEnvelope struct {
	Response *envelope `json:"response"`
}

// WebAPI fetches an inventory through IEconService, which requires a web
// API key instead of a session. The web API omits the success flag; a
// present "response" object is the success signal.
func (c *Client) WebAPI(ctx context.Context, apiKey string, opts Options) (*Result, error) {
	ctx, span := tracer.Start(ctx, "client:WebAPI")
	defer span.End()

	if err := opts.validate(); err != nil {
		return nil, err
	}
	contextID := strconv.FormatUint(opts.ContextID, 10)

	fetch := func(ctx context.Context, start string) (*page, error) {
		req := c.webAPI.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"key":              apiKey,
				"appid":            strconv.FormatUint(uint64(opts.AppID), 10),
				"contextid":        contextID,
				"steamid":          opts.UserID.String(),
				"get_descriptions": "true",
				"language":         opts.language(),
				"count":            "2000",
			})
		if start != "" {
			req.SetQueryParam("start_assetid", start)
		}

		res, err := req.Get("/IEconService/GetInventoryItemsWithDescriptions/v1/")
		if err != nil {
			return nil, err
		}
		if res.StatusCode() == http.StatusForbidden {
			return nil, community.ErrInvalidAPIKey
		}
		if res.IsError() {
			return nil, &community.StatusError{StatusCode: res.StatusCode()}
		}

		var body webAPIEnvelope
		if err := json.Unmarshal(res.Body(), &body); err != nil {
			return nil, fmt.Errorf("%w: %w", community.ErrMalformedResponse, err)
		}
		if body.Response == nil {
			return nil, community.ErrMalformedResponse
		}
		body.Response.Success = true
		return pageFromEnvelope(body.Response)
	}

	result, err := c.paginate(ctx, opts, contextID, fetch)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

const steamApisTransientBody = "Could not retrieve user inventory. Please try again later."

func steamApisRetryCondition(res *resty.Response, err error) bool {
	if err != nil || res == nil {
		return false
	}
	return res.StatusCode() == http.StatusNotFound ||
		bytes.Contains(res.Body(), []byte(steamApisTransientBody))
}

// SteamApis fetches an inventory through the api.steamapis.com mirror.
func (c *Client) SteamApis(ctx context.Context, apiKey string, opts Options) (*Result, error) {
	ctx, span := tracer.Start(ctx, "client:SteamApis")
	defer span.End()

	if err := opts.validate(); err != nil {
		return nil, err
	}
	contextID := strconv.FormatUint(opts.ContextID, 10)

	fetch := func(ctx context.Context, start string) (*page, error) {
		req := c.steamApis.R().
			SetContext(ctx).
			SetQueryParam("api_key", apiKey).
			SetQueryParam("l", opts.language()).
			SetQueryParam("count", "2000")
		if start != "" {
			req.SetQueryParam("start_assetid", start)
		}

		res, err := req.Get(fmt.Sprintf("/steam/inventory/%s/%d/%s", opts.UserID.String(), opts.AppID, contextID))
		if err != nil {
			return nil, err
		}
		if res.StatusCode() == http.StatusForbidden {
			return nil, community.ErrPrivateProfile
		}
		if res.IsError() {
			return nil, &community.StatusError{StatusCode: res.StatusCode()}
		}
		return classifyPage(res.Body())
	}

	result, err := c.paginate(ctx, opts, contextID, fetch)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

func steamSupplyRetryCondition(res *resty.Response, err error) bool {
	if err != nil || res == nil {
		return false
	}
	if res.StatusCode() == http.StatusInternalServerError {
		return true
	}
	// the mirror occasionally answers with a fake_redirect stub or a bare
	// non-object body instead of a page
	trimmed := bytes.TrimSpace(res.Body())
	if len(trimmed) > 0 && trimmed[0] != '{' {
		return true
	}
	return bytes.Contains(trimmed, []byte(`"fake_redirect"`))
}

// SteamSupply fetches an inventory through the steam.supply mirror, which
// carries the API key in the URL path.
func (c *Client) SteamSupply(ctx context.Context, apiKey string, opts Options) (*Result, error) {
	ctx, span := tracer.Start(ctx, "client:SteamSupply")
	defer span.End()

	if err := opts.validate(); err != nil {
		return nil, err
	}
	contextID := strconv.FormatUint(opts.ContextID, 10)

	fetch := func(ctx context.Context, start string) (*page, error) {
		req := c.steamSupply.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"l":         opts.language(),
				"steamid":   opts.UserID.String(),
				"appid":     strconv.FormatUint(uint64(opts.AppID), 10),
				"contextid": contextID,
				"count":     "5000",
			})
		if start != "" {
			req.SetQueryParam("start_assetid", start)
		}

		res, err := req.Get(fmt.Sprintf("/API/%s/loadinventory/", url.PathEscape(apiKey)))
		if err != nil {
			return nil, err
		}
		if res.StatusCode() == http.StatusForbidden {
			body := string(res.Body())
			switch {
			case strings.Contains(body, "Invalid API key"):
				return nil, community.ErrInvalidAPIKey
			case strings.Contains(body, "Inventory Private"):
				return nil, community.ErrPrivateInventory
			}
			return nil, &community.StatusError{StatusCode: res.StatusCode()}
		}
		if res.IsError() {
			return nil, &community.StatusError{StatusCode: res.StatusCode()}
		}
		return classifyPage(res.Body())
	}

	result, err := c.paginate(ctx, opts, contextID, fetch)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

func rapidAPIRetryCondition(res *resty.Response, err error) bool {
	if err != nil || res == nil {
		return false
	}
	if res.StatusCode() == http.StatusTooManyRequests {
		return true
	}
	return bytes.Contains(res.Body(), []byte("took too long to respond")) ||
		bytes.Contains(res.Body(), []byte("Could not retrieve user inventory"))
}

// RapidAPI fetches an inventory through the steamdata1 RapidAPI gateway.
func (c *Client) RapidAPI(ctx context.Context, apiKey string, opts Options) (*Result, error) {
	ctx, span := tracer.Start(ctx, "client:RapidAPI")
	defer span.End()

	if err := opts.validate(); err != nil {
		return nil, err
	}
	contextID := strconv.FormatUint(opts.ContextID, 10)

	fetch := func(ctx context.Context, start string) (*page, error) {
		req := c.rapidAPI.R().
			SetContext(ctx).
			SetHeader("X-RapidAPI-Key", apiKey).
			SetHeader("X-RapidAPI-Host", rapidAPIHost(c.rapidAPI.BaseURL)).
			SetQueryParam("l", opts.language()).
			SetQueryParam("count", "5000")
		if start != "" {
			req.SetQueryParam("start_assetid", start)
		}

		res, err := req.Get(fmt.Sprintf("/inventory/%s/%d/%s", opts.UserID.String(), opts.AppID, contextID))
		if err != nil {
			return nil, err
		}
		if res.StatusCode() == http.StatusForbidden && isNullBody(res.Body()) {
			return nil, community.ErrPrivateProfile
		}

		env, err := decodeEnvelope(res.Body())
		if err != nil {
			if res.IsError() {
				return nil, &community.StatusError{StatusCode: res.StatusCode()}
			}
			return nil, err
		}
		if env.Message == "Forbidden" {
			return nil, community.ErrInvalidAPIKey
		}
		if res.IsError() {
			return nil, &community.StatusError{StatusCode: res.StatusCode()}
		}
		return pageFromEnvelope(env)
	}

	result, err := c.paginate(ctx, opts, contextID, fetch)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

func rapidAPIHost(baseURL string) string {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" {
		return baseURL
	}
	return parsed.Host
}
