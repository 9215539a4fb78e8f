package handler // handler defines http handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// garbageTypes is the accepted vocabulary for the garbage_type field.
// Lookup is by lower-cased input; the canonical spelling is stored.
var garbageTypes = map[string]string{
	"dry":     "Dry",
	"wet":     "Wet",
	"e-waste": "E-waste",
	"mixed":   "Mixed",
}

// normalizeGarbageType returns the canonical spelling of a garbage
// type, or "" when the value is not recognised.
func normalizeGarbageType(raw string) string {
	return garbageTypes[strings.ToLower(strings.TrimSpace(raw))]
}

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getRole returns the role claim set by the JWT middleware, or "" when
// absent.
func getRole(c echo.Context) string {
	if s, ok := c.Get("role").(string); ok {
		return s
	}
	return ""
}

// pathID parses the :id path parameter as a positive integer.
func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
