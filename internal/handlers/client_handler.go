package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/client-portal/internal/domain/client"
	"github.com/BruksfildServices01/client-portal/internal/domain/stage"
	"github.com/BruksfildServices01/client-portal/internal/dto"
	"github.com/BruksfildServices01/client-portal/internal/httperr"
	"github.com/BruksfildServices01/client-portal/internal/httpresp"
	"github.com/BruksfildServices01/client-portal/internal/middleware"
	"github.com/BruksfildServices01/client-portal/internal/models"
	ucclient "github.com/BruksfildServices01/client-portal/internal/usecase/client"
	"github.com/BruksfildServices01/client-portal/internal/usecase/token"
)

type ClientHandler struct {
	db         *gorm.DB
	repo       domain.Repository
	createLead *ucclient.CreateLead
	onboarding *ucclient.StartOnboarding
	cancel     *ucclient.Cancel
	tokens     *token.Service
}

func NewClientHandler(
	db *gorm.DB,
	repo domain.Repository,
	createLead *ucclient.CreateLead,
	onboarding *ucclient.StartOnboarding,
	cancel *ucclient.Cancel,
	tokens *token.Service,
) *ClientHandler {
	return &ClientHandler{
		db:         db,
		repo:       repo,
		createLead: createLead,
		onboarding: onboarding,
		cancel:     cancel,
		tokens:     tokens,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateClientRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type CancelClientRequest struct {
	Reason string `json:"reason"`
}

// ======================================================
// LIST / GET
// ======================================================

func (h *ClientHandler) List(c *gin.Context) {
	q := h.db.Model(&models.Client{}).Preload("PaymentHold")

	if raw := c.Query("stage"); raw != "" {
		s, err := stage.Parse(raw)
		if err != nil {
			httperr.FromError(c, err, "invalid_stage")
			return
		}
		q = q.Where("stage = ?", string(s))
	}

	if query := strings.ToLower(strings.TrimSpace(c.Query("query"))); query != "" {
		like := "%" + query + "%"
		q = q.Where(
			"LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?",
			like, like, like,
		)
	}

	var clients []models.Client
	if err := q.
		Order("created_at DESC").
		Limit(200).
		Find(&clients).Error; err != nil {

		httperr.Internal(c, "failed_to_list_clients", "Could not list clients.")
		return
	}

	out := make([]dto.ClientDTO, 0, len(clients))
	for i := range clients {
		out = append(out, dto.Client(&clients[i]))
	}
	httpresp.List(c, out)
}

func (h *ClientHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	cl, err := h.repo.Load(c.Request.Context(), id)
	if err != nil {
		httperr.FromError(c, err, "client_load_failed")
		return
	}
	httpresp.OK(c, dto.Client(cl))
}

// ======================================================
// LIFECYCLE
// ======================================================

func (h *ClientHandler) Create(c *gin.Context) {
	var req CreateClientRequest
	if !bindJSON(c, &req) {
		return
	}

	cl, err := h.createLead.Execute(c.Request.Context(), ucclient.CreateLeadInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		ActorID: middleware.ActorID(c),
	})
	if err != nil {
		httperr.FromError(c, err, "client_create_failed")
		return
	}
	httpresp.Created(c, dto.Client(cl))
}

func (h *ClientHandler) Invite(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	res, err := h.onboarding.Invite(c.Request.Context(), id, middleware.ActorID(c))
	if err != nil {
		httperr.FromError(c, err, "invite_failed")
		return
	}
	httpresp.OK(c, gin.H{
		"client":     dto.Client(res.Client),
		"expires_at": res.ExpiresAt,
	})
}

func (h *ClientHandler) Cancel(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req CancelClientRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	cl, err := h.cancel.ByStaff(c.Request.Context(), id, middleware.ActorID(c), req.Reason)
	if err != nil {
		httperr.FromError(c, err, "cancel_failed")
		return
	}
	httpresp.OK(c, dto.Client(cl))
}

func (h *ClientHandler) IssueFreeAnalysisToken(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	tok, err := h.tokens.Issue(c.Request.Context(), id)
	if err != nil {
		httperr.FromError(c, err, "token_issue_failed")
		return
	}
	httpresp.OK(c, gin.H{"token": tok})
}
