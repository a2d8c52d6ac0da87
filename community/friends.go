package community

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/go-resty/resty/v2"
	"github.com/leighmacdonald/steamid/v4/steamid"
	"go.opentelemetry.io/otel/codes"

	"steamcommunity/econ"
)

func checkStatus(res *resty.Response) error {
	if res.IsError() {
		return &StatusError{StatusCode: res.StatusCode()}
	}
	return nil
}

type successBody struct {
	Success econ.Bool `json:"success"`
	Error   string    `json:"error"`
}

// AddFriend sends a friend invite to the given user.
func (c *Client) AddFriend(ctx context.Context, userID steamid.SteamID) error {
	return c.friendInvite(ctx, "AddFriend", userID, "0")
}

// AcceptFriendRequest accepts a pending invite from the given user.
func (c *Client) AcceptFriendRequest(ctx context.Context, userID steamid.SteamID) error {
	return c.friendInvite(ctx, "AcceptFriendRequest", userID, "1")
}

func (c *Client) friendInvite(ctx context.Context, op string, userID steamid.SteamID, acceptInvite string) error {
	ctx, span := tracer.Start(ctx, "client:"+op)
	defer span.End()

	if !userID.Valid() {
		return &InvalidUserIDError{Input: userID.String()}
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"accept_invite": acceptInvite,
			"sessionID":     c.sessionID,
			"steamid":       userID.String(),
		}).
		Post("/actions/AddFriendAjax")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch")
		return err
	}
	if err := checkStatus(res); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	var body successBody
	if err := json.Unmarshal(res.Body(), &body); err != nil {
		span.SetStatus(codes.Error, "failed to parse json response")
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if !body.Success {
		span.SetStatus(codes.Error, "upstream reported failure")
		return ErrUnknown
	}
	return nil
}

// RemoveFriend removes the given user from the friends list.
func (c *Client) RemoveFriend(ctx context.Context, userID steamid.SteamID) error {
	ctx, span := tracer.Start(ctx, "client:RemoveFriend")
	defer span.End()

	if !userID.Valid() {
		return &InvalidUserIDError{Input: userID.String()}
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"sessionID": c.sessionID,
			"steamid":   userID.String(),
		}).
		Post("/actions/RemoveFriendAjax")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch")
		return err
	}
	return checkStatus(res)
}

// RemoveFriends removes every listed friend in one batch request. Entries
// may be SteamIDs or strings parseable into one.
func (c *Client) RemoveFriends(ctx context.Context, friends []steamid.SteamID) error {
	ctx, span := tracer.Start(ctx, "client:RemoveFriends")
	defer span.End()

	if !c.steamID.Valid() {
		return ErrNotLoggedIn
	}
	if len(friends) == 0 {
		return errors.New("no friends specified")
	}

	self := c.steamID.String()
	form := url.Values{}
	form.Set("sessionID", c.sessionID)
	form.Set("steamid", self)
	form.Set("action", "remove")
	form.Set("ajax", "1")
	for _, friend := range friends {
		if !friend.Valid() {
			return &InvalidUserIDError{Input: friend.String()}
		}
		form.Add("steamids[]", friend.String())
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("Origin", c.BaseUrl.String()).
		SetHeader("Referer", fmt.Sprintf("%s/profiles/%s/friends/", c.BaseUrl, self)).
		SetFormDataFromValues(form).
		Post(fmt.Sprintf("/profiles/%s/friends/action", self))
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch")
		return err
	}
	if err := checkStatus(res); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	var body successBody
	if err := json.Unmarshal(res.Body(), &body); err != nil {
		span.SetStatus(codes.Error, "failed to parse json response")
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if !body.Success {
		span.SetStatus(codes.Error, "upstream reported failure")
		return ErrUnknown
	}
	return nil
}

// BlockCommunication blocks all communication with the given user.
func (c *Client) BlockCommunication(ctx context.Context, userID steamid.SteamID) error {
	ctx, span := tracer.Start(ctx, "client:BlockCommunication")
	defer span.End()

	if !userID.Valid() {
		return &InvalidUserIDError{Input: userID.String()}
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"sessionID": c.sessionID,
			"steamid":   userID.String(),
		}).
		Post("/actions/BlockUserAjax")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch")
		return err
	}
	return checkStatus(res)
}

// UnblockCommunication unblocks a previously blocked user.
func (c *Client) UnblockCommunication(ctx context.Context, userID steamid.SteamID) error {
	ctx, span := tracer.Start(ctx, "client:UnblockCommunication")
	defer span.End()

	if !c.steamID.Valid() {
		return ErrNotLoggedIn
	}
	if !userID.Valid() {
		return &InvalidUserIDError{Input: userID.String()}
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"action": "unignore",
			fmt.Sprintf("friends[%s]", userID.String()): "1",
			"sessionID": c.sessionID,
		}).
		Post(fmt.Sprintf("/profiles/%s/friends/blocked/", c.steamID.String()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch")
		return err
	}
	return checkStatus(res)
}

// InviteUserToGroup invites a user to the given community group.
func (c *Client) InviteUserToGroup(ctx context.Context, userID steamid.SteamID, groupID string) error {
	ctx, span := tracer.Start(ctx, "client:InviteUserToGroup")
	defer span.End()

	if !userID.Valid() {
		return &InvalidUserIDError{Input: userID.String()}
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"group":     groupID,
			"invitee":   userID.String(),
			"json":      "1",
			"sessionID": c.sessionID,
			"type":      "groupInvite",
		}).
		Post("/actions/GroupInvite")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch")
		return err
	}
	if err := checkStatus(res); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	var body struct {
		Results string `json:"results"`
	}
	if err := json.Unmarshal(res.Body(), &body); err != nil {
		span.SetStatus(codes.Error, "failed to parse json response")
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	switch body.Results {
	case "OK":
		return nil
	case "":
		span.SetStatus(codes.Error, "upstream reported failure")
		return ErrUnknown
	default:
		span.SetStatus(codes.Error, body.Results)
		return &UpstreamError{Message: body.Results}
	}
}
