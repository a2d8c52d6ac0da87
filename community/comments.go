package community

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/leighmacdonald/steamid/v4/steamid"
	"go.opentelemetry.io/otel/codes"

	"steamcommunity/econ"
)

// CommentAuthor identifies who wrote a profile comment.
type CommentAuthor struct {
	SteamID steamid.SteamID
	Name    string
	// Avatar is the author's avatar image URL.
	Avatar string
	// State is the presence class from the avatar frame, e.g. "online",
	// "offline" or "in-game".
	State string
}

// Comment is one entry of a profile's comment thread, scraped from the
// HTML fragment the render endpoint embeds in its JSON envelope.
type Comment struct {
	ID     string
	Author CommentAuthor
	Time   time.Time
	// Text is the comment's plain text, HTML the raw markup.
	Text string
	HTML string
}

type commentsEnvelope struct {
	Success      econ.Bool `json:"success"`
	CommentsHTML string    `json:"comments_html"`
	TotalCount   int       `json:"total_count"`
	Error        string    `json:"error"`
}

func classifyCommentsEnvelope(data []byte) (*commentsEnvelope, error) {
	var body commentsEnvelope
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if !body.Success {
		if body.Error != "" {
			return nil, &UpstreamError{Message: body.Error}
		}
		return nil, ErrUnknown
	}
	return &body, nil
}

func parseCommentThread(fragment string) ([]Comment, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	var comments []Comment
	doc.Find(".commentthread_comment.responsive_body_text[id]").Each(func(_ int, sel *goquery.Selection) {
		// elements carry ids of the form comment_<gid>
		id := sel.AttrOr("id", "")
		if i := strings.IndexByte(id, '_'); i >= 0 {
			id = id[i+1:]
		}

		accountID := sel.Find("[data-miniprofile]").AttrOr("data-miniprofile", "")
		avatar := sel.Find(".playerAvatar")
		state := ""
		if classes := strings.Fields(avatar.AttrOr("class", "")); len(classes) > 0 {
			state = classes[len(classes)-1]
		}

		stamp, _ := strconv.ParseInt(
			sel.Find(".commentthread_comment_timestamp").AttrOr("data-timestamp", ""), 10, 64)

		content := sel.Find(".commentthread_comment_text")
		rawHTML, _ := content.Html()

		comments = append(comments, Comment{
			ID: id,
			Author: CommentAuthor{
				SteamID: steamid.New(fmt.Sprintf("[U:1:%s]", accountID)),
				Name:    sel.Find("bdi").First().Text(),
				Avatar:  avatar.Find("img[src]").AttrOr("src", ""),
				State:   state,
			},
			Time: time.Unix(stamp, 0),
			Text: strings.TrimSpace(content.Text()),
			HTML: strings.TrimSpace(rawHTML),
		})
	})

	return comments, nil
}

// PostUserComment posts a comment to the given user's profile and returns
// the id of the new comment.
func (c *Client) PostUserComment(ctx context.Context, userID steamid.SteamID, message string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:PostUserComment")
	defer span.End()

	if !userID.Valid() {
		return "", &InvalidUserIDError{Input: userID.String()}
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"comment":   message,
			"count":     "1",
			"sessionid": c.sessionID,
		}).
		Post(fmt.Sprintf("/comment/Profile/post/%s/-1", userID.String()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch")
		return "", err
	}
	if err := checkStatus(res); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	body, err := classifyCommentsEnvelope(res.Body())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBufferString(body.CommentsHTML))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse html")
		return "", fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	id := doc.Find(".commentthread_comment").First().AttrOr("id", "")
	if i := strings.IndexByte(id, '_'); i >= 0 {
		id = id[i+1:]
	}
	if id == "" {
		span.SetStatus(codes.Error, "no comment id in returned fragment")
		return "", ErrMalformedResponse
	}
	return id, nil
}

// DeleteUserComment deletes a comment from the given user's profile. The
// upstream success flag is not trusted by itself: deletion only counts
// when the returned fragment no longer contains the comment id.
func (c *Client) DeleteUserComment(ctx context.Context, userID steamid.SteamID, commentID string) error {
	ctx, span := tracer.Start(ctx, "client:DeleteUserComment")
	defer span.End()

	if !userID.Valid() {
		return &InvalidUserIDError{Input: userID.String()}
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"gidcomment": commentID,
			"start":      "0",
			"count":      "1",
			"sessionid":  c.sessionID,
			"feature2":   "-1",
		}).
		Post(fmt.Sprintf("/comment/Profile/delete/%s/-1", userID.String()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch")
		return err
	}
	if err := checkStatus(res); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	body, err := classifyCommentsEnvelope(res.Body())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if strings.Contains(body.CommentsHTML, commentID) {
		span.SetStatus(codes.Error, "comment id still present after deletion")
		return ErrCommentNotDeleted
	}
	return nil
}

type CommentsOptions struct {
	// Start is the offset into the thread, Count how many comments to
	// render. A zero Count asks the upstream for its default window.
	Start int
	Count int
}

// GetUserComments lists comments on the given user's profile along with
// the thread's total comment count.
func (c *Client) GetUserComments(ctx context.Context, userID steamid.SteamID, opts CommentsOptions) ([]Comment, int, error) {
	ctx, span := tracer.Start(ctx, "client:GetUserComments")
	defer span.End()

	if !userID.Valid() {
		return nil, 0, &InvalidUserIDError{Input: userID.String()}
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"start":     strconv.Itoa(opts.Start),
			"count":     strconv.Itoa(opts.Count),
			"feature2":  "-1",
			"sessionid": c.sessionID,
		}).
		Post(fmt.Sprintf("/comment/Profile/render/%s/-1", userID.String()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, 0, err
	}
	if err := checkStatus(res); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, err
	}

	body, err := classifyCommentsEnvelope(res.Body())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, err
	}

	comments, err := parseCommentThread(body.CommentsHTML)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, err
	}
	return comments, body.TotalCount, nil
}
