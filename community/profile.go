package community

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/leighmacdonald/steamid/v4/steamid"
	"go.opentelemetry.io/otel/codes"

	"steamcommunity/lib/htmlutil"
)

// Alias is one entry of a user's display-name history.
type Alias struct {
	Name        string
	TimeChanged time.Time
}

// GetUserAliases lists the historical display names of the given user,
// most recent first.
func (c *Client) GetUserAliases(ctx context.Context, userID steamid.SteamID) ([]Alias, error) {
	ctx, span := tracer.Start(ctx, "client:GetUserAliases")
	defer span.End()

	if !userID.Valid() {
		return nil, &InvalidUserIDError{Input: userID.String()}
	}

	res, err := c.Http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/profiles/%s/ajaxaliases", userID.String()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, err
	}
	if err := checkStatus(res); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var entries []struct {
		NewName     string `json:"newname"`
		TimeChanged string `json:"timechanged"`
	}
	if err := json.Unmarshal(res.Body(), &entries); err != nil {
		span.SetStatus(codes.Error, "failed to parse json response")
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	aliases := make([]Alias, 0, len(entries))
	for _, entry := range entries {
		changed, err := DecodeSteamTime(entry.TimeChanged)
		if err != nil {
			span.SetStatus(codes.Error, "failed to decode alias timestamp")
			return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
		}
		aliases = append(aliases, Alias{Name: entry.NewName, TimeChanged: changed})
	}
	return aliases, nil
}

// GetUserProfileBackground returns the URL of the user's profile
// background image, or "" when the profile has none.
func (c *Client) GetUserProfileBackground(ctx context.Context, userID steamid.SteamID) (string, error) {
	ctx, span := tracer.Start(ctx, "client:GetUserProfileBackground")
	defer span.End()

	if !userID.Valid() {
		return "", &InvalidUserIDError{Input: userID.String()}
	}

	res, err := c.Http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/profiles/%s", userID.String()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch")
		return "", err
	}
	if err := checkStatus(res); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse html")
		return "", err
	}

	if private := doc.Find(".profile_private_info"); private.Length() > 0 {
		span.SetStatus(codes.Error, "profile is private")
		return "", fmt.Errorf("%w: %s", ErrPrivateProfile, htmlutil.NormalizeText(private.Text()))
	}

	if !doc.Find("body").HasClass("has_profile_background") {
		return "", nil
	}

	style := doc.Find("div.profile_background_image_content").AttrOr("style", "")
	background := htmlutil.InlineBackgroundURL(style)
	if background == "" {
		span.SetStatus(codes.Error, "background container without image url")
		return "", ErrMalformedResponse
	}
	return background, nil
}

type CommentPrivacy string

const (
	CommentPrivacyPublic  CommentPrivacy = "Public"
	CommentPrivacyPrivate CommentPrivacy = "Private"
)

// GetCommentPrivacy reports whether the given user's comment section is
// publicly writable. The page carries no explicit flag, so an empty
// comment area container is read as private.
func (c *Client) GetCommentPrivacy(ctx context.Context, userID steamid.SteamID) (CommentPrivacy, error) {
	ctx, span := tracer.Start(ctx, "client:GetCommentPrivacy")
	defer span.End()

	if !userID.Valid() {
		return "", &InvalidUserIDError{Input: userID.String()}
	}

	res, err := c.Http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/profiles/%s", userID.String()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch")
		return "", err
	}
	if err := checkStatus(res); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse html")
		return "", err
	}

	area := doc.Find(".profile_comment_area")
	if area.Length() == 0 {
		span.SetStatus(codes.Error, "no comment area on profile page")
		return "", ErrMalformedResponse
	}
	if area.Children().Length() > 0 {
		return CommentPrivacyPublic, nil
	}
	return CommentPrivacyPrivate, nil
}

// AppContext is one sub-partition of an application's inventory.
type AppContext struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AssetCount int    `json:"asset_count"`
}

// InventoryApp describes one application appearing in a user's inventory,
// including its contexts.
type InventoryApp struct {
	AppID            int                   `json:"appid"`
	Name             string                `json:"name"`
	Icon             string                `json:"icon"`
	Link             string                `json:"link"`
	AssetCount       int                   `json:"asset_count"`
	InventoryLogo    string                `json:"inventory_logo"`
	TradePermissions string                `json:"trade_permissions"`
	Contexts         map[string]AppContext `json:"rgContexts"`
}

var appContextDataRegex = regexp.MustCompile(`var g_rgAppContextData = ([^\n]+);\r?\n`)

// GetUserInventoryContexts scrapes the inventory page's embedded
// g_rgAppContextData blob, keyed by app id. An inventory with zero items
// yields an empty map; private inventories and profiles are classified as
// their distinct errors.
func (c *Client) GetUserInventoryContexts(ctx context.Context, userID steamid.SteamID) (map[string]InventoryApp, error) {
	ctx, span := tracer.Start(ctx, "client:GetUserInventoryContexts")
	defer span.End()

	if !userID.Valid() {
		return nil, &InvalidUserIDError{Input: userID.String()}
	}

	res, err := c.Http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/profiles/%s/inventory/", userID.String()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, err
	}
	if err := checkStatus(res); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	page := string(res.Body())

	blob := ""
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err == nil {
		for _, script := range doc.Find("script").Nodes {
			groups := appContextDataRegex.FindStringSubmatch(htmlutil.GetText(script))
			if len(groups) >= 2 {
				blob = groups[1]
				break
			}
		}
	}

	if blob == "" {
		switch {
		case strings.Contains(page, "0 items in their inventory."):
			return map[string]InventoryApp{}, nil
		case strings.Contains(page, "inventory is currently private."):
			span.SetStatus(codes.Error, "inventory is private")
			return nil, ErrPrivateInventory
		case strings.Contains(page, "profile_private_info"):
			span.SetStatus(codes.Error, "profile is private")
			return nil, ErrPrivateProfile
		}
		span.SetStatus(codes.Error, "no app context data on inventory page")
		return nil, ErrMalformedResponse
	}

	var contexts map[string]InventoryApp
	if err := json.Unmarshal([]byte(blob), &contexts); err != nil {
		span.SetStatus(codes.Error, "failed to parse app context data")
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return contexts, nil
}
