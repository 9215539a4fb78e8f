package middleware

// identity.go provides the identity fragment used by cache and rate
// limit keys.  Listings are filtered per caller, so cached responses
// must never be shared across identities.

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// currentUserID returns a string form of the authenticated user's ID,
// or "anon" for unauthenticated requests.  JWTAuth stores the raw
// claim value, which arrives as float64 from the JSON decoder.
func currentUserID(c echo.Context) string {
	v := c.Get("user_id")
	if v == nil {
		return "anon"
	}
	switch t := v.(type) {
	case string:
		if t != "" {
			return t
		}
	case float64:
		return fmt.Sprintf("%.0f", t)
	case uint64:
		return fmt.Sprintf("%d", t)
	case int64:
		return fmt.Sprintf("%d", t)
	}
	return "anon"
}
