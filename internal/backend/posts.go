package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

const (
	fieldCaption           = "caption"
	fieldScheduledTime     = "scheduled_time"
	fieldScheduledTimeUser = "scheduled_time_user"
)

var zonedLayouts = []string{
	time.RFC3339,
	time.RFC1123,
	time.RFC1123Z,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z07:00",
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseInstant parses a backend timestamp. Values without a zone are read in
// loc; a bare date is midnight UTC.
func ParseInstant(value string, loc *time.Location) (time.Time, error) {
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time value %q", value)
}

// PendingPosts returns the posts awaiting publication with both timestamps
// normalized. A body without pending_posts is ErrMalformedResponse.
func (c *Client) PendingPosts(ctx context.Context, loc *time.Location) ([]models.PendingPost, error) {
	resp, err := c.do(ctx, http.MethodGet, EndpointPendingPosts, nil, "")
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, statusError(EndpointPendingPosts, resp.status, nil, "")
	}

	var payload transfer.PendingPostsResponse
	if err := json.Unmarshal(resp.body, &payload); err != nil {
		return nil, malformed(EndpointPendingPosts, err)
	}
	if payload.PendingPosts == nil {
		if payload.Error != "" {
			return nil, &APIError{Endpoint: EndpointPendingPosts, StatusCode: resp.status, Message: payload.Error}
		}
		return nil, malformed(EndpointPendingPosts, "missing pending_posts")
	}

	posts := make([]models.PendingPost, 0, len(*payload.PendingPosts))
	for i, raw := range *payload.PendingPosts {
		post, err := decodePendingPost(raw, loc)
		if err != nil {
			return nil, malformed(EndpointPendingPosts, fmt.Sprintf("post %d: %v", i, err))
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func decodePendingPost(raw map[string]json.RawMessage, loc *time.Location) (models.PendingPost, error) {
	var post models.PendingPost
	var err error

	if post.ScheduledTime, err = decodeInstant(raw[fieldScheduledTime], loc); err != nil {
		return post, fmt.Errorf("%s: %w", fieldScheduledTime, err)
	}
	if post.ScheduledTimeUser, err = decodeInstant(raw[fieldScheduledTimeUser], loc); err != nil {
		return post, fmt.Errorf("%s: %w", fieldScheduledTimeUser, err)
	}

	extra := make(map[string]json.RawMessage, len(raw))
	for k, v := range raw {
		extra[k] = v
	}
	if captionRaw, ok := raw[fieldCaption]; ok && bytes.HasPrefix(bytes.TrimSpace(captionRaw), []byte(`"`)) {
		if json.Unmarshal(captionRaw, &post.Caption) == nil {
			post.HasCaption = true
			delete(extra, fieldCaption)
		}
	}
	delete(extra, fieldScheduledTime)
	delete(extra, fieldScheduledTimeUser)
	post.Extra = extra

	return post, nil
}

// decodeInstant accepts a timestamp string or epoch milliseconds.
func decodeInstant(raw json.RawMessage, loc *time.Location) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, errors.New("missing value")
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, err
		}
		return ParseInstant(s, loc)
	}

	var ms json.Number
	if err := json.Unmarshal(raw, &ms); err != nil {
		return time.Time{}, fmt.Errorf("unsupported value %s", raw)
	}
	n, err := ms.Int64()
	if err != nil {
		return time.Time{}, fmt.Errorf("unsupported value %s", raw)
	}
	return time.UnixMilli(n).UTC(), nil
}
