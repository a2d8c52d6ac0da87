// Package community is a client for the parts of the Steam Community
// website that have no official API: friends, profile comments,
// inventories, profile scraping and chat image uploads. It drives
// authenticated browser-style HTTP requests and parses the HTML/JSON the
// site returns.
//
// The client never logs in by itself. Session cookies and the session id
// come from an external login component and are handed over through
// ClientOptions/SetCookies.
package community

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/leighmacdonald/steamid/v4/steamid"
	"go.opentelemetry.io/otel"

	"steamcommunity/lib/telemetry"
)

var tracer = otel.Tracer("community")

const defaultBaseURL = "https://steamcommunity.com"

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type Client struct {
	Http    *resty.Client
	BaseUrl *url.URL

	steamID   steamid.SteamID
	sessionID string

	mobileAccessToken string

	onSessionExpired func(error)
}

type ClientOptions struct {
	// BaseUrl overrides https://steamcommunity.com, mainly for tests.
	BaseUrl string
	// SteamID is the identity the session cookies belong to.
	SteamID steamid.SteamID
	// SessionID is the sessionid cookie value issued at login.
	SessionID string
	// OnSessionExpired is invoked when a response pattern indicates the
	// session is no longer valid (e.g. our own inventory reported
	// private). The error describes what triggered the notification.
	OnSessionExpired func(error)
}

func NewClient(opts ClientOptions) (*Client, error) {
	base := opts.BaseUrl
	if base == "" {
		base = defaultBaseURL
	}
	baseUrl, err := url.Parse(base)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(base)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", browserUserAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "community/http")

	return &Client{
		Http:             client,
		BaseUrl:          baseUrl,
		steamID:          opts.SteamID,
		sessionID:        opts.SessionID,
		onSessionExpired: opts.OnSessionExpired,
	}, nil
}

// SetCookies loads login cookies (steamLoginSecure and friends) into the
// client's jar for the community domain.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	c.Http.GetClient().Jar.SetCookies(c.BaseUrl, cookies)
}

// SteamID returns the identity this client is authenticated as. The zero
// value means no identity was configured.
func (c *Client) SteamID() steamid.SteamID {
	return c.steamID
}

// SessionID returns the sessionid token submitted with every authenticated
// form.
func (c *Client) SessionID() string {
	return c.sessionID
}

// SessionExpired reports a session-expiry signal to the session layer.
// The community site never says "your session died" outright; it shows up
// as impossible responses like our own inventory being private.
func (c *Client) SessionExpired(err error) {
	if c.onSessionExpired != nil {
		c.onSessionExpired(err)
	}
}

// ParseUserID parses a user identifier string (steam64, steam2 or steam3
// form) into a SteamID.
func ParseUserID(s string) (steamid.SteamID, error) {
	sid := steamid.New(s)
	if !sid.Valid() {
		return sid, &InvalidUserIDError{Input: s}
	}
	return sid, nil
}

type InvalidUserIDError struct {
	Input string
}

func (e *InvalidUserIDError) Error() string {
	return "the user's SteamID is invalid or missing: " + e.Input
}
