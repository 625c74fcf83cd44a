package sec

import "strings"

// ExtractBearerToken returns the token of an "Authorization: Bearer <token>" header, or "".
func ExtractBearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
