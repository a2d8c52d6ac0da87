package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"

	"steamcommunity/community"
	"steamcommunity/econ"
)

// "Duplicate request (29)" style bodies the official endpoint returns
// with a 500
var eresultSuffixRegex = regexp.MustCompile(`^(.+) \((\d+)\)$`)

// Contents fetches an inventory through the official endpoint, using the
// community session for access to friends-only inventories.
func (c *Client) Contents(ctx context.Context, opts Options) (*Result, error) {
	ctx, span := tracer.Start(ctx, "client:Contents")
	defer span.End()

	if err := opts.validate(); err != nil {
		return nil, err
	}

	sid := opts.UserID.String()
	contextID := strconv.FormatUint(opts.ContextID, 10)

	fetch := func(ctx context.Context, start string) (*page, error) {
		req := c.Core.Http.R().
			SetContext(ctx).
			SetHeader("Referer", fmt.Sprintf("%s/profiles/%s/inventory", c.Core.BaseUrl, sid)).
			SetQueryParam("l", opts.language()).
			SetQueryParam("count", "2000")
		if start != "" {
			req.SetQueryParam("start_assetid", start)
		}

		res, err := req.Get(fmt.Sprintf("/inventory/%s/%d/%s", sid, opts.AppID, contextID))
		if err != nil {
			return nil, err
		}
		return c.classifyOfficial(res, opts)
	}

	result, err := c.paginate(ctx, opts, contextID, fetch)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

func (c *Client) classifyOfficial(res *resty.Response, opts Options) (*page, error) {
	switch {
	case res.StatusCode() == http.StatusForbidden && isNullBody(res.Body()):
		// a 403 with a body of "null" means the inventory/profile is
		// private. we can never legitimately get that for our own
		// inventory, so for self it is a session-expiry signal instead.
		selfID := c.Core.SteamID()
		if selfID.Valid() && opts.UserID.Int64() == selfID.Int64() {
			c.Core.SessionExpired(community.ErrSessionExpired)
			return nil, community.ErrSessionExpired
		}
		return nil, community.ErrPrivateProfile

	case res.StatusCode() == http.StatusInternalServerError:
		env, err := decodeEnvelope(res.Body())
		if err == nil && env.Error != "" {
			if groups := eresultSuffixRegex.FindStringSubmatch(env.Error); groups != nil {
				code, _ := strconv.Atoi(groups[2])
				return nil, &community.UpstreamError{Message: groups[1], EResult: code}
			}
			return nil, &community.UpstreamError{Message: env.Error}
		}
		return nil, &community.StatusError{StatusCode: res.StatusCode()}

	case res.IsError():
		return nil, &community.StatusError{StatusCode: res.StatusCode()}
	}

	return classifyPage(res.Body())
}

// startToken is the legacy endpoint's more_start field, which is a number
// when more pages remain and the literal false otherwise.
type startToken string

func (t *startToken) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		*t = startToken(v)
	case float64:
		*t = startToken(strconv.FormatInt(int64(v), 10))
	default:
		*t = ""
	}
	return nil
}

type legacyAsset struct {
	ID         string `json:"id"`
	ClassID    string `json:"classid"`
	InstanceID string `json:"instanceid"`
	Amount     string `json:"amount"`
}

type legacyEnvelope struct {
	Success      econ.Bool                   `json:"success"`
	Error        string                      `json:"Error"`
	Inventory    map[string]legacyAsset      `json:"rgInventory"`
	Descriptions map[string]econ.Description `json:"rgDescriptions"`
	Currency     map[string]legacyAsset      `json:"rgCurrency"`
	More         econ.Bool                   `json:"more"`
	MoreStart    startToken                  `json:"more_start"`
}

// Legacy fetches an inventory through the pre-2016 endpoint, which keys
// everything by maps instead of lists. It reports no total count.
//
// Deprecated: the endpoint still answers for some apps but Contents is
// the one Valve maintains.
func (c *Client) Legacy(ctx context.Context, opts Options) (*Result, error) {
	ctx, span := tracer.Start(ctx, "client:Legacy")
	defer span.End()

	if err := opts.validate(); err != nil {
		return nil, err
	}

	sid := opts.UserID.String()
	contextID := strconv.FormatUint(opts.ContextID, 10)

	fetch := func(ctx context.Context, start string) (*page, error) {
		req := c.Core.Http.R().
			SetContext(ctx).
			SetHeader("Referer", fmt.Sprintf("%s/profiles/%s/inventory", c.Core.BaseUrl, sid))
		if start != "" {
			req.SetQueryParam("start", start)
		}
		if opts.TradableOnly {
			req.SetQueryParam("trading", "1")
		}

		res, err := req.Get(fmt.Sprintf("/profiles/%s/inventory/json/%d/%s", sid, opts.AppID, contextID))
		if err != nil {
			return nil, err
		}
		if res.IsError() {
			return nil, &community.StatusError{StatusCode: res.StatusCode()}
		}

		if isNullBody(res.Body()) {
			return nil, community.ErrMalformedResponse
		}
		var env legacyEnvelope
		if err := json.Unmarshal(res.Body(), &env); err != nil {
			return nil, fmt.Errorf("%w: %w", community.ErrMalformedResponse, err)
		}
		return legacyPage(&env)
	}

	result, err := c.paginate(ctx, opts, contextID, fetch)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

func legacyPage(env *legacyEnvelope) (*page, error) {
	if !env.Success || env.Inventory == nil || env.Descriptions == nil || env.Currency == nil {
		if env.Error != "" {
			return nil, &community.UpstreamError{Message: env.Error}
		}
		return nil, community.ErrMalformedResponse
	}

	// map order is meaningless in Go, but the upstream's object keys are
	// the asset ids in ascending numeric order, which mirrors slot order
	assets := make([]pageAsset, 0, len(env.Inventory)+len(env.Currency))
	for _, entry := range sortedLegacyAssets(env.Inventory) {
		assets = append(assets, pageAsset{
			assetID:    entry.ID,
			classID:    entry.ClassID,
			instanceID: entry.InstanceID,
			amount:     entry.Amount,
		})
	}
	for _, entry := range sortedLegacyAssets(env.Currency) {
		assets = append(assets, pageAsset{
			assetID:    entry.ID,
			classID:    entry.ClassID,
			instanceID: entry.InstanceID,
			amount:     entry.Amount,
			currencyID: entry.ID,
		})
	}

	descriptions := make([]econ.Description, 0, len(env.Descriptions))
	for _, desc := range env.Descriptions {
		descriptions = append(descriptions, desc)
	}

	return &page{
		assets:       assets,
		descriptions: descriptions,
		moreItems:    bool(env.More),
		nextStart:    string(env.MoreStart),
		totalCount:   -1,
	}, nil
}

func sortedLegacyAssets(entries map[string]legacyAsset) []legacyAsset {
	out := make([]legacyAsset, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.ParseUint(out[i].ID, 10, 64)
		b, _ := strconv.ParseUint(out[j].ID, 10, 64)
		return a < b
	})
	return out
}
