package credentials

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeClaims decodes the payload of a JWT without verifying its signature.
// Intended for the debug token check only, never for authorization decisions.
func DecodeClaims(token string) (map[string]any, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid JWT format: expected 3 parts but got %d", len(parts))
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode token payload: %w", err)
	}

	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("failed to parse token payload: %w", err)
	}

	return claims, nil
}
