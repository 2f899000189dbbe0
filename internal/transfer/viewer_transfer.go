package transfer

import "github.com/golang-jwt/jwt/v5"

// ViewerClaims is the payload of the token carried in the viewer cookie.
type ViewerClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Timezone string `json:"tz,omitempty"`
	jwt.RegisteredClaims
}
