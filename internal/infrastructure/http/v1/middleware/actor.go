package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	appctx "stockflow/internal/core/context"
)

// HeaderActor carries the acting user name.
const HeaderActor = "X-Actor"

// Actor middleware propagates the acting user name into the request
// context. There is no authentication layer; mutations performed
// without the header are attributed to "system".
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimSpace(c.GetHeader(HeaderActor))
		if name != "" {
			ctx := appctx.WithActor(c.Request.Context(), &appctx.Actor{Name: name})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
