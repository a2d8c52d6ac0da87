package community

import (
	"context"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var webAPIKeyRegex = regexp.MustCompile(`<p>Key: ([0-9A-F]+)</p>`)

// GetWebAPIKey returns the account's registered Steam Web API key,
// registering a new one for the given domain when none exists yet.
func (c *Client) GetWebAPIKey(ctx context.Context, domain string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:GetWebAPIKey")
	defer span.End()

	return c.getWebAPIKey(ctx, domain, false)
}

func (c *Client) getWebAPIKey(ctx context.Context, domain string, registered bool) (string, error) {
	res, err := c.Http.R().
		SetContext(ctx).
		Get("/dev/apikey?l=english")
	if err != nil {
		return "", err
	}
	if err := checkStatus(res); err != nil {
		return "", err
	}

	page := string(res.Body())

	if strings.Contains(page, "<h2>Access Denied</h2>") {
		return "", ErrAccessDenied
	}
	if strings.Contains(page, "You must have a validated email address to create a Steam Web API key.") {
		return "", ErrEmailNotValidated
	}

	if groups := webAPIKeyRegex.FindStringSubmatch(page); len(groups) >= 2 {
		return groups[1], nil
	}

	// no key registered yet; register one, then fetch the page again.
	// guard against looping when registration silently fails.
	if registered {
		return "", ErrMalformedResponse
	}

	span := trace.SpanFromContext(ctx)
	span.AddEvent("registering new web API key")

	res, err = c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"domain":       domain,
			"agreeToTerms": "agreed",
			"sessionid":    c.sessionID,
			"Submit":       "Register",
		}).
		Post("/dev/registerkey?l=english")
	if err != nil {
		return "", err
	}
	if err := checkStatus(res); err != nil {
		span.SetStatus(codes.Error, "failed to register key")
		return "", err
	}

	return c.getWebAPIKey(ctx, domain, true)
}
