package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/client-portal/internal/dto"
	"github.com/BruksfildServices01/client-portal/internal/httperr"
	"github.com/BruksfildServices01/client-portal/internal/httpresp"
	ucclient "github.com/BruksfildServices01/client-portal/internal/usecase/client"
	"github.com/BruksfildServices01/client-portal/internal/usecase/token"
)

////////////////////////////////////////////////////////
// HANDLER
////////////////////////////////////////////////////////

// PublicHandler serves the free analysis page. The token is the only
// credential and responses never carry the client id.
type PublicHandler struct {
	tokens     *token.Service
	onboarding *ucclient.StartOnboarding
}

func NewPublicHandler(tokens *token.Service, onboarding *ucclient.StartOnboarding) *PublicHandler {
	return &PublicHandler{tokens: tokens, onboarding: onboarding}
}

func (h *PublicHandler) FreeAnalysis(c *gin.Context) {
	cl, err := h.tokens.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		httperr.FromError(c, err, "free_analysis_failed")
		return
	}
	httpresp.OK(c, dto.FreeAnalysis(cl))
}

func (h *PublicHandler) Start(c *gin.Context) {
	res, err := h.onboarding.RequestStart(c.Request.Context(), c.Param("token"))
	if err != nil {
		httperr.FromError(c, err, "start_failed")
		return
	}
	httpresp.OK(c, gin.H{
		"stage":        res.Client.Stage,
		"portal_token": res.PortalToken,
		"expires_at":   res.ExpiresAt,
	})
}
