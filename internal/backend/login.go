package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

// InstagramLogin starts the Instagram authorization flow for viewer and
// returns the URL the viewer must be sent to. Only the presence of auth_url
// decides success.
func (c *Client) InstagramLogin(ctx context.Context, viewer models.ViewerIdentity) (string, error) {
	body, err := json.Marshal(transfer.InstagramLoginRequest{
		Username: viewer.Username,
		UserID:   viewer.UserID,
	})
	if err != nil {
		return "", fmt.Errorf("error marshalling payload: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, EndpointInstagramLogin, bytes.NewReader(body), "application/json")
	if err != nil {
		return "", err
	}

	var payload transfer.InstagramLoginResponse
	if err := json.Unmarshal(resp.body, &payload); err != nil {
		if !resp.ok() {
			return "", statusError(EndpointInstagramLogin, resp.status, nil, "")
		}
		return "", malformed(EndpointInstagramLogin, err)
	}

	if payload.AuthURL == "" {
		if !resp.ok() || payload.Error != "" {
			return "", statusError(EndpointInstagramLogin, resp.status, resp.body, "")
		}
		return "", ErrMissingAuthURL
	}

	u, err := url.Parse(payload.AuthURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "https" && u.Scheme != "http") {
		return "", fmt.Errorf("invalid auth URL %q", payload.AuthURL)
	}
	return u.String(), nil
}
