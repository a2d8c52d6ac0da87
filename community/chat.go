package community

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"strconv"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/leighmacdonald/steamid/v4/steamid"
	"go.opentelemetry.io/otel/codes"
)

type SendImageOptions struct {
	// Spoiler hides the image behind a click-through in chat.
	Spoiler bool
}

type uploadSlot struct {
	Success   int         `json:"success"`
	Message   string      `json:"message"`
	HMAC      string      `json:"hmac"`
	Timestamp json.Number `json:"timestamp"`
	Result    struct {
		UGCID          json.Number `json:"ugcid"`
		UseHTTPS       bool        `json:"use_https"`
		URLHost        string      `json:"url_host"`
		URLPath        string      `json:"url_path"`
		RequestHeaders []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"request_headers"`
	} `json:"result"`
}

type commitResult struct {
	Success int `json:"success"`
	Result  struct {
		Success int `json:"success"`
		Details struct {
			URL string `json:"url"`
		} `json:"details"`
	} `json:"result"`
}

// SendImageToUser uploads an image and sends it to the given user over
// Steam chat, returning the URL of the hosted image. The upload is a
// three-step protocol: request a signed upload slot, PUT the bytes to the
// returned host, then commit the upload back at the origin. A failed step
// aborts the whole operation; partially uploaded files are not cleaned up.
func (c *Client) SendImageToUser(ctx context.Context, userID steamid.SteamID, contents []byte, opts SendImageOptions) (string, error) {
	ctx, span := tracer.Start(ctx, "client:SendImageToUser")
	defer span.End()

	if !userID.Valid() {
		return "", &InvalidUserIDError{Input: userID.String()}
	}
	if len(contents) == 0 {
		return "", fmt.Errorf("the image contents must not be empty")
	}

	config, format, err := image.DecodeConfig(bytes.NewReader(contents))
	if err != nil {
		span.SetStatus(codes.Error, "failed to decode image")
		return "", fmt.Errorf("the image contents are not a decodable image: %w", err)
	}

	digest := sha1.Sum(contents)
	fileSHA := hex.EncodeToString(digest[:])
	filename := fmt.Sprintf("%d_image.%s", time.Now().UnixMilli(), format)
	fileType := "image/" + format
	width := strconv.Itoa(config.Width)
	height := strconv.Itoa(config.Height)

	// step 1: declare the file and get a signed upload slot
	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("referer", c.BaseUrl.String()+"/chat/").
		SetMultipartFormData(map[string]string{
			"sessionid":         c.sessionID,
			"l":                 "english",
			"file_size":         strconv.Itoa(len(contents)),
			"file_name":         filename,
			"file_sha":          fileSHA,
			"file_image_width":  width,
			"file_image_height": height,
			"file_type":         fileType,
		}).
		Post("/chat/beginfileupload/?l=english")
	if err != nil {
		span.SetStatus(codes.Error, "failed to begin upload")
		return "", err
	}

	var slot uploadSlot
	if err := json.Unmarshal(res.Body(), &slot); err != nil {
		span.SetStatus(codes.Error, "failed to parse upload slot")
		return "", fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if slot.Success != 1 {
		span.SetStatus(codes.Error, "upload slot refused")
		return "", &EResultError{Code: slot.Success, Message: slot.Message}
	}
	if slot.Result.UGCID.String() == "" || slot.Result.URLHost == "" || len(slot.Result.RequestHeaders) == 0 {
		span.SetStatus(codes.Error, "upload slot missing fields")
		return "", ErrMalformedResponse
	}

	scheme := "http"
	if slot.Result.UseHTTPS {
		scheme = "https"
	}
	uploadURL := fmt.Sprintf("%s://%s%s", scheme, slot.Result.URLHost, slot.Result.URLPath)

	headers := map[string]string{}
	for _, header := range slot.Result.RequestHeaders {
		headers[strings.ToLower(header.Name)] = header.Value
	}

	// step 2: PUT the contents to the slot's host
	res, err = c.Http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(contents).
		Put(uploadURL)
	if err != nil {
		span.SetStatus(codes.Error, "failed to upload contents")
		return "", err
	}
	if err := checkStatus(res); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	// step 3: commit the upload, naming the recipient
	spoiler := "0"
	if opts.Spoiler {
		spoiler = "1"
	}
	res, err = c.Http.R().
		SetContext(ctx).
		SetHeader("referer", c.BaseUrl.String()+"/chat/").
		SetMultipartFormData(map[string]string{
			"sessionid":         c.sessionID,
			"l":                 "english",
			"file_name":         filename,
			"file_sha":          fileSHA,
			"success":           "1",
			"ugcid":             slot.Result.UGCID.String(),
			"file_type":         fileType,
			"file_image_width":  width,
			"file_image_height": height,
			"timestamp":         slot.Timestamp.String(),
			"hmac":              slot.HMAC,
			"friend_steamid":    userID.String(),
			"spoiler":           spoiler,
		}).
		Post("/chat/commitfileupload/")
	if err != nil {
		span.SetStatus(codes.Error, "failed to commit upload")
		return "", err
	}

	var committed commitResult
	if err := json.Unmarshal(res.Body(), &committed); err != nil {
		span.SetStatus(codes.Error, "failed to parse commit response")
		return "", fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if committed.Success != 1 {
		span.SetStatus(codes.Error, "commit refused")
		return "", &EResultError{Code: committed.Success}
	}
	if committed.Result.Success != 1 {
		span.SetStatus(codes.Error, "commit result refused")
		return "", &EResultError{Code: committed.Result.Success}
	}
	if committed.Result.Details.URL == "" {
		span.SetStatus(codes.Error, "commit result missing url")
		return "", ErrMalformedResponse
	}
	return committed.Result.Details.URL, nil
}
