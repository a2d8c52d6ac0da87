package community

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type mobileTokenClaims struct {
	Issuer   string
	Subject  string
	Audience []string
	Expiry   int64
}

func decodeAccessToken(token string) (*mobileTokenClaims, error) {
	parsed, _, err := new(jwt.Parser).ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("provided value is not a valid Steam access token: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("provided value is not a valid Steam access token")
	}

	out := &mobileTokenClaims{}
	out.Issuer, _ = claims["iss"].(string)
	out.Subject, _ = claims["sub"].(string)
	if exp, ok := claims["exp"].(float64); ok {
		out.Expiry = int64(exp)
	}
	switch aud := claims["aud"].(type) {
	case string:
		out.Audience = []string{aud}
	case []any:
		for _, entry := range aud {
			if s, ok := entry.(string); ok {
				out.Audience = append(out.Audience, s)
			}
		}
	}
	return out, nil
}

func (t *mobileTokenClaims) hasAudience(name string) bool {
	for _, aud := range t.Audience {
		if aud == name {
			return true
		}
	}
	return false
}

// SetMobileAppAccessToken stores an access token generated externally for
// the MobileApp platform. The token is only structurally decoded, never
// signature-verified; it is rejected when it is a refresh token, expired,
// issued for another account, or not valid for the mobile platform.
func (c *Client) SetMobileAppAccessToken(token string) error {
	if !c.steamID.Valid() {
		return ErrNotLoggedIn
	}

	decoded, err := decodeAccessToken(token)
	if err != nil {
		return err
	}

	if decoded.Issuer == "" || decoded.Subject == "" || len(decoded.Audience) == 0 || decoded.Expiry == 0 {
		return errors.New("provided value is not a valid Steam access token")
	}
	if decoded.Issuer == "steam" {
		return errors.New("provided token is a refresh token, not an access token")
	}
	if decoded.Subject != c.steamID.String() {
		return fmt.Errorf(
			"provided token belongs to account %s, but we are logged into %s",
			decoded.Subject, c.steamID.String(),
		)
	}
	if decoded.Expiry < time.Now().Unix() {
		return errors.New("provided token is expired")
	}
	if !decoded.hasAudience("mobile") {
		return errors.New("provided token is not valid for MobileApp platform type")
	}

	c.mobileAccessToken = token
	return nil
}

// VerifyMobileAccessToken drops the stored token in place when the active
// identity changed or the expiry elapsed. Operations depending on the
// token call this before use.
func (c *Client) VerifyMobileAccessToken() {
	if c.mobileAccessToken == "" {
		return
	}

	decoded, err := decodeAccessToken(c.mobileAccessToken)
	invalid := err != nil ||
		decoded.Subject != c.steamID.String() ||
		decoded.Expiry < time.Now().Unix()

	if invalid {
		c.mobileAccessToken = ""
	}
}

// MobileAppAccessToken returns the stored mobile access token after
// re-validating it, or "" when no valid token is held.
func (c *Client) MobileAppAccessToken() string {
	c.VerifyMobileAccessToken()
	return c.mobileAccessToken
}
