package models

// ViewerIdentity is supplied by the authentication collaborator and never mutated.
type ViewerIdentity struct {
	Username string `json:"username"`
	UserID   string `json:"user_id"`
}
