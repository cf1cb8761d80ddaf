package http

import (
	"net/http"

	"cuotas/internal/core"
)

const (
	headerUserID = "X-User-ID"
	headerRole   = "X-User-Role"
)

type roleGate int

const (
	anyRole roleGate = iota
	adminOnly
)

type caller struct {
	UserID string
	Role   core.Role
}

// requireRole wraps a handler with identity extraction and role gating.
// The caller identity comes from trusted proxy headers.
func (s *Server) requireRole(h func(http.ResponseWriter, *http.Request, caller), gate roleGate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(headerUserID)
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing user identity")
			return
		}
		role := core.Role(r.Header.Get(headerRole))
		if role == "" {
			role = core.RoleCollaborator
		}
		if !role.Valid() {
			writeError(w, http.StatusUnauthorized, "unauthorized", "unknown role")
			return
		}
		if gate == adminOnly && role != core.RoleAdmin {
			writeError(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		h(w, r, caller{UserID: userID, Role: role})
	}
}
