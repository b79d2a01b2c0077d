package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("session: invalid token payload")

// Claims are the identity fields the console reads from a bearer token.
//
// ExtractClaims only base64url-decodes the payload segment. The signature and
// expiry are never checked here; the backend verifies the token on every call
// the console makes with it, so these values are display and routing hints only.
type Claims struct {
	InstitutionID string
	Role          string
	UserID        string
}

func ExtractClaims(raw string) (Claims, error) {
	parts := strings.Split(raw, ".")
	if len(parts) < 2 {
		return Claims{}, fmt.Errorf("%w: expected header.payload.signature", ErrInvalidToken)
	}

	seg, err := jwt.NewParser().DecodeSegment(parts[1])
	if err != nil {
		return Claims{}, fmt.Errorf("%w: decode payload: %v", ErrInvalidToken, err)
	}

	dec := json.NewDecoder(bytes.NewReader(seg))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return Claims{}, fmt.Errorf("%w: payload json: %v", ErrInvalidToken, err)
	}

	c := Claims{
		InstitutionID: claimString(payload, "institutionId"),
		Role:          claimString(payload, "role"),
		UserID:        claimString(payload, "userId", "sub", "id"),
	}
	if c.InstitutionID == "" || c.Role == "" || c.UserID == "" {
		return Claims{}, fmt.Errorf("%w: missing institutionId, role or userId", ErrInvalidToken)
	}
	return c, nil
}

// claimString returns the first non-empty value among keys.
func claimString(payload map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := payload[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case json.Number:
			if s := v.String(); s != "" && s != "0" {
				return s
			}
		}
	}
	return ""
}
