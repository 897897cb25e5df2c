package handlers

import (
	"github.com/gin-gonic/gin"

	domain "github.com/BruksfildServices01/client-portal/internal/domain/client"
	"github.com/BruksfildServices01/client-portal/internal/dto"
	"github.com/BruksfildServices01/client-portal/internal/httperr"
	"github.com/BruksfildServices01/client-portal/internal/httpresp"
	"github.com/BruksfildServices01/client-portal/internal/middleware"
	"github.com/BruksfildServices01/client-portal/internal/models"
	ucclient "github.com/BruksfildServices01/client-portal/internal/usecase/client"
)

// PortalHandler serves the authenticated client. The subject of the portal
// token is the client id.
type PortalHandler struct {
	repo   domain.Repository
	cancel *ucclient.Cancel
}

func NewPortalHandler(repo domain.Repository, cancel *ucclient.Cancel) *PortalHandler {
	return &PortalHandler{repo: repo, cancel: cancel}
}

func (h *PortalHandler) Access(c *gin.Context) {
	id := middleware.ActorID(c)
	if id == nil {
		httperr.Unauthorized(c, "invalid_token_payload", "Token has no client.")
		return
	}

	cl, err := h.repo.Load(c.Request.Context(), *id)
	if err != nil {
		httperr.FromError(c, err, "client_load_failed")
		return
	}
	httpresp.OK(c, dto.PortalClient(cl))
}

// Resource runs behind middleware.StageGate, which already loaded the
// client and checked the matrix.
func (h *PortalHandler) Resource(c *gin.Context) {
	cl := c.MustGet(middleware.ContextClient).(*models.Client)
	httpresp.OK(c, gin.H{
		"resource": c.Param("resource"),
		"client":   dto.PortalClient(cl),
	})
}

func (h *PortalHandler) Cancel(c *gin.Context) {
	id := middleware.ActorID(c)
	if id == nil {
		httperr.Unauthorized(c, "invalid_token_payload", "Token has no client.")
		return
	}

	cl, err := h.cancel.ByClient(c.Request.Context(), *id)
	if err != nil {
		httperr.FromError(c, err, "cancel_failed")
		return
	}
	httpresp.OK(c, dto.PortalClient(cl))
}
