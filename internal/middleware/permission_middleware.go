package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/gharsewa/estate_api/internal/cache"
	"github.com/gharsewa/estate_api/internal/models"
	"github.com/gharsewa/estate_api/internal/utils"
)

// PermissionMiddleware gates admin routes on the login-time permission
// snapshot. Checks never hit the database: a grant made after login takes
// effect only after re-login or an explicit session refresh.
type PermissionMiddleware struct {
	sessionCache *cache.SessionCache
}

func NewPermissionMiddleware(sessionCache *cache.SessionCache) *PermissionMiddleware {
	return &PermissionMiddleware{sessionCache: sessionCache}
}

// RequireAdmin allows any active admin session, permission checks aside.
func (m *PermissionMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := m.snapshot(c); !ok {
			return
		}
		c.Next()
	}
}

// RequireSuperAdmin allows only super admin sessions.
func (m *PermissionMiddleware) RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := m.snapshot(c)
		if !ok {
			return
		}
		if snap.Role != models.RoleSuperAdmin {
			utils.Error(c, 403, "FORBIDDEN", "Super admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// Require allows admin sessions whose snapshot holds the permission.
func (m *PermissionMiddleware) Require(p models.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := m.snapshot(c)
		if !ok {
			return
		}
		if !snap.Can(p) {
			utils.Error(c, 403, "PERMISSION_DENIED", "Missing permission: "+string(p))
			c.Abort()
			return
		}
		c.Next()
	}
}

// snapshot loads the session snapshot for the authenticated user. A missing
// snapshot means the session predates a restart or expired in the cache;
// the admin must log in again.
func (m *PermissionMiddleware) snapshot(c *gin.Context) (*cache.SessionSnapshot, bool) {
	role := models.Role(c.GetString("role"))
	if !role.IsAdminRole() {
		utils.Error(c, 403, "FORBIDDEN", "Admin access required")
		c.Abort()
		return nil, false
	}

	snap, err := m.sessionCache.Get(c.Request.Context(), c.GetInt("user_id"))
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to load session")
		c.Abort()
		return nil, false
	}
	if snap == nil {
		utils.Error(c, 401, "SESSION_EXPIRED", "Session expired, please log in again")
		c.Abort()
		return nil, false
	}
	if !snap.IsAdminActive {
		utils.Error(c, 403, "ADMIN_INACTIVE", "Admin account is deactivated")
		c.Abort()
		return nil, false
	}
	return snap, true
}
