package backend

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/transfer"
)

// ConnectedAccounts returns the viewer's linked platform accounts. An error
// field in a 2xx body is reported as an *APIError.
func (c *Client) ConnectedAccounts(ctx context.Context) ([]models.ConnectedAccount, error) {
	resp, err := c.do(ctx, http.MethodGet, EndpointConnectedAccounts, nil, "")
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, statusError(EndpointConnectedAccounts, resp.status, nil, "")
	}

	var payload transfer.ConnectedAccountsResponse
	if err := json.Unmarshal(resp.body, &payload); err != nil {
		return nil, malformed(EndpointConnectedAccounts, err)
	}
	if payload.Error != "" {
		return nil, &APIError{Endpoint: EndpointConnectedAccounts, StatusCode: resp.status, Message: payload.Error}
	}

	accounts := make([]models.ConnectedAccount, 0, len(payload.ConnectedAccounts))
	for _, raw := range payload.ConnectedAccounts {
		var a models.ConnectedAccount
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, malformed(EndpointConnectedAccounts, err)
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}
