package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"medride/internal/domain"
)

// Identity headers set by the trusted gateway in front of the API.
const (
	HeaderUserID   = "x-user-id"
	HeaderDriverID = "x-driver-id"
	HeaderAdminID  = "x-admin-id"
)

const actorKey = "actor"

var identityHeaders = []struct {
	header string
	role   domain.Role
}{
	{HeaderUserID, domain.RoleUser},
	{HeaderDriverID, domain.RoleDriver},
	{HeaderAdminID, domain.RoleAdmin},
}

// IdentityMiddleware resolves the request actor from exactly one identity
// header. No header is 401; several headers or a non-numeric id is 400.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var actor domain.Actor
		found := 0
		for _, h := range identityHeaders {
			raw := c.GetHeader(h.header)
			if raw == "" {
				continue
			}
			found++
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + h.header + " header"})
				return
			}
			actor = domain.Actor{Role: h.role, ID: id}
		}

		switch found {
		case 0:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing identity header"})
			return
		case 1:
		default:
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "exactly one identity header is allowed"})
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// ActorFrom returns the actor resolved by IdentityMiddleware.
func ActorFrom(c *gin.Context) (domain.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return domain.Actor{}, false
	}
	actor, ok := v.(domain.Actor)
	return actor, ok
}
