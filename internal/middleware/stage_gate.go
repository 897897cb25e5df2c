package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/client-portal/internal/domain/access"
	"github.com/BruksfildServices01/client-portal/internal/domain/stage"
	"github.com/BruksfildServices01/client-portal/internal/httperr"
	"github.com/BruksfildServices01/client-portal/internal/models"
)

const ContextClient = "client"

type ClientLoader interface {
	Load(ctx context.Context, id uint) (*models.Client, error)
}

// StageGate loads the authenticated client and checks the :resource path
// parameter against the access matrix for its current stage.
func StageGate(clients ClientLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := c.Get(ContextUserID)
		clientID, _ := id.(uint)
		if !ok || clientID == 0 {
			httperr.Unauthorized(c, "invalid_token_payload", "Token has no client.")
			c.Abort()
			return
		}

		cl, err := clients.Load(c.Request.Context(), clientID)
		if err != nil {
			httperr.FromError(c, err, "client_load_failed")
			c.Abort()
			return
		}

		allowed, err := access.CanAccess(stage.Stage(cl.Stage), c.Param("resource"))
		if err != nil {
			httperr.FromError(c, err, "access_check_failed")
			c.Abort()
			return
		}
		if !allowed {
			httperr.Forbidden(c, "resource_not_available", "Not available at the current stage.")
			c.Abort()
			return
		}

		c.Set(ContextClient, cl)
		c.Next()
	}
}
