// Package inventory fetches the complete contents of Steam Community
// inventories. Every upstream that serves inventories pages the same way
// (a start_assetid style cursor plus a shared description list), so a
// single pagination engine drives all six endpoint variants: the official
// endpoint, the legacy endpoint, the IEconService web API and three
// third-party mirrors.
package inventory

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/leighmacdonald/steamid/v4/steamid"
	"go.opentelemetry.io/otel"

	"steamcommunity/community"
	"steamcommunity/econ"
	"steamcommunity/lib/telemetry"
)

var tracer = otel.Tracer("community/inventory")

const (
	defaultWebAPIBaseURL      = "https://api.steampowered.com"
	defaultSteamApisBaseURL   = "https://api.steamapis.com"
	defaultSteamSupplyBaseURL = "https://steam.supply"
	defaultRapidAPIBaseURL    = "https://steamdata1.p.rapidapi.com"
)

// RetryPolicy bounds how transient upstream failures are retried. The
// wait time grows exponentially per attempt up to MaxWaitTime. Which
// failures count as transient is decided per endpoint; the budget and
// backoff are deliberately uniform across all of them.
type RetryPolicy struct {
	Retries     int
	WaitTime    time.Duration
	MaxWaitTime time.Duration
}

var DefaultRetryPolicy = RetryPolicy{
	Retries:     5,
	WaitTime:    time.Second,
	MaxWaitTime: time.Second * 16,
}

func (p RetryPolicy) orDefault() RetryPolicy {
	if p.Retries == 0 && p.WaitTime == 0 && p.MaxWaitTime == 0 {
		return DefaultRetryPolicy
	}
	return p
}

type ClientOptions struct {
	// Retry overrides DefaultRetryPolicy for the endpoints that classify
	// some failures as transient.
	Retry RetryPolicy

	// base URL overrides, mainly for tests
	WebAPIBaseUrl      string
	SteamApisBaseUrl   string
	SteamSupplyBaseUrl string
	RapidAPIBaseUrl    string
}

// Client fetches inventories through the community session held by Core
// (official and legacy endpoints) or through keyed mirror services.
type Client struct {
	Core *community.Client

	retry       RetryPolicy
	webAPI      *resty.Client
	steamApis   *resty.Client
	steamSupply *resty.Client
	rapidAPI    *resty.Client
}

func NewClient(core *community.Client, opts ClientOptions) *Client {
	retry := opts.Retry.orDefault()
	c := &Client{
		Core:  core,
		retry: retry,
	}
	c.webAPI = c.newMirror("webapi", orDefault(opts.WebAPIBaseUrl, defaultWebAPIBaseURL), nil)
	c.steamApis = c.newMirror("steamapis", orDefault(opts.SteamApisBaseUrl, defaultSteamApisBaseURL), steamApisRetryCondition)
	c.steamSupply = c.newMirror("steamsupply", orDefault(opts.SteamSupplyBaseUrl, defaultSteamSupplyBaseURL), steamSupplyRetryCondition)
	c.rapidAPI = c.newMirror("rapidapi", orDefault(opts.RapidAPIBaseUrl, defaultRapidAPIBaseURL), rapidAPIRetryCondition)
	return c
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// newMirror builds a resty client for one upstream. Endpoints with a
// retry condition get the uniform bounded-exponential-backoff policy;
// resty re-issues the same page request until the condition clears or the
// budget runs out.
func (c *Client) newMirror(name, baseURL string, retryCondition resty.RetryConditionFunc) *resty.Client {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(client, "community/inventory/"+name)

	if retryCondition != nil {
		client.
			SetRetryCount(c.retry.Retries).
			SetRetryWaitTime(c.retry.WaitTime).
			SetRetryMaxWaitTime(c.retry.MaxWaitTime).
			AddRetryCondition(retryCondition)
	}
	return client
}

// Options selects whose inventory to fetch and how to filter it.
type Options struct {
	UserID    steamid.SteamID
	AppID     uint32
	ContextID uint64
	// TradableOnly drops every item whose description reports it as not
	// tradable.
	TradableOnly bool
	// Language of the item descriptions, "english" when empty.
	Language string
}

func (o Options) language() string {
	if o.Language == "" {
		return "english"
	}
	return o.Language
}

func (o Options) validate() error {
	if !o.UserID.Valid() {
		return &community.InvalidUserIDError{Input: o.UserID.String()}
	}
	return nil
}

// Result is the complete contents of one inventory context. Items and
// Currencies are in upstream order with 1-based contiguous positions
// counted across both sequences.
type Result struct {
	Items      []econ.Item
	Currencies []econ.Item
	// TotalCount is the upstream-reported total where the endpoint
	// provides one, otherwise the number of fetched entries.
	TotalCount int
}

// pageAsset is one asset entry normalized out of an endpoint's envelope.
type pageAsset struct {
	assetID    string
	classID    string
	instanceID string
	amount     string
	currencyID string
}

// page is one normalized page of an inventory listing. An endpoint that
// reports no total count sets totalCount to -1.
type page struct {
	empty bool

	assets       []pageAsset
	descriptions []econ.Description
	moreItems    bool
	nextStart    string
	totalCount   int
}

type pageFetcher func(ctx context.Context, start string) (*page, error)

// descriptionCache memoizes (classid, instanceid) description lookups for
// the duration of one fetch call. On a miss it indexes the current page's
// description list once instead of rescanning it per asset; keys seen on
// an earlier page are never overwritten.
type descriptionCache map[string]*econ.Description

func (c descriptionCache) lookup(descriptions []econ.Description, classID, instanceID string) *econ.Description {
	key := econ.DescriptionKey(classID, instanceID)
	if desc, ok := c[key]; ok {
		return desc
	}
	for i := range descriptions {
		desc := &descriptions[i]
		if _, ok := c[desc.Key()]; !ok {
			c[desc.Key()] = desc
		}
	}
	return c[key]
}

// paginate walks an endpoint page by page, resolving descriptions,
// assigning positions in fetch order and routing currency assets apart
// from regular items.
func (c *Client) paginate(ctx context.Context, opts Options, contextID string, fetch pageFetcher) (*Result, error) {
	result := &Result{}
	cache := descriptionCache{}
	pos := 1
	start := ""

	for {
		pg, err := fetch(ctx, start)
		if err != nil {
			return nil, err
		}
		if pg.empty {
			return &Result{}, nil
		}

		for _, asset := range pg.assets {
			desc := cache.lookup(pg.descriptions, asset.classID, asset.instanceID)
			if desc == nil {
				// an asset referencing a description the upstream never
				// sent cannot be classified
				return nil, community.ErrMalformedResponse
			}
			if opts.TradableOnly && !bool(desc.Tradable) {
				continue
			}

			isCurrency := asset.currencyID != ""
			item := econ.NewItem(
				asset.assetID, contextID,
				econ.ParseAmount(asset.amount),
				pos, isCurrency, desc,
			)
			pos++

			if isCurrency {
				result.Currencies = append(result.Currencies, item)
			} else {
				result.Items = append(result.Items, item)
			}
		}

		if pg.moreItems && pg.nextStart != "" {
			start = pg.nextStart
			continue
		}

		result.TotalCount = pg.totalCount
		if result.TotalCount < 0 {
			result.TotalCount = len(result.Items) + len(result.Currencies)
		}
		return result, nil
	}
}
