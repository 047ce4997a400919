package middleware

import (
	"strings"

	"github.com/upb/studio-auth/services"
)

// IsOwnerOrAdmin reports whether principal may act on a resource owned by ownerEmail
func IsOwnerOrAdmin(principal *services.Principal, ownerEmail string) bool {
	if principal == nil {
		return false
	}
	if principal.Admin {
		return true
	}
	return ownerEmail != "" && strings.EqualFold(principal.Username, ownerEmail)
}
