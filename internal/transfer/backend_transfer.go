package transfer

import "encoding/json"

type ConnectedAccountsResponse struct {
	ConnectedAccounts []json.RawMessage `json:"connected_accounts"`
	Error             string            `json:"error"`
}

type PendingPostsResponse struct {
	PendingPosts *[]map[string]json.RawMessage `json:"pending_posts"`
	Error        string                        `json:"error"`
}

type InstagramLoginRequest struct {
	Username string `json:"username"`
	UserID   string `json:"user_id"`
}

type InstagramLoginResponse struct {
	AuthURL string `json:"auth_url"`
	Error   string `json:"error"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
