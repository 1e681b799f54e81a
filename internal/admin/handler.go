package admin

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/DevS-25/Paperless/internal/auth"
	"github.com/DevS-25/Paperless/internal/users"
	"github.com/DevS-25/Paperless/internal/workflow"
)

type Handler struct {
	service *Service
	userSvc *users.Service
}

func NewHandler(service *Service, userSvc *users.Service) *Handler {
	return &Handler{service: service, userSvc: userSvc}
}

// RegisterRoutes mounts the admin surface. Everything here requires the
// ADMIN role.
func (h *Handler) RegisterRoutes(r *gin.Engine, m *auth.Middleware) {
	group := r.Group("/admin", m.Authenticate(), m.RequireRole(workflow.RoleAdmin))
	{
		group.GET("/statistics", h.Statistics)
		group.GET("/statistics/export", h.ExportStatistics)
		group.GET("/users", h.Users)
		group.POST("/set-role", h.SetRole)
	}
}

func (h *Handler) Statistics(c *gin.Context) {
	stats, err := h.service.Statistics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ExportStatistics streams the dashboard snapshot as an XLSX workbook.
func (h *Handler) ExportStatistics(c *gin.Context) {
	stats, err := h.service.Statistics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := ExportStatistics(&buf, stats); err != nil {
		respondError(c, err)
		return
	}
	name := "paperless-statistics-" + time.Now().Format("2006-01-02") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}

func (h *Handler) Users(c *gin.Context) {
	list, err := h.service.Users(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": list})
}

type setRoleRequest struct {
	Email string `json:"email" binding:"required"`
	Role  string `json:"role" binding:"required"`
}

// SetRole grants a role to an existing account by email.
func (h *Handler) SetRole(c *gin.Context) {
	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"kind": string(workflow.KindValidation), "error": "email and role are required"})
		return
	}
	role, ok := workflow.ParseRole(req.Role)
	if !ok || role == workflow.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"kind": string(workflow.KindValidation), "error": "unknown or unassignable role"})
		return
	}
	user, err := h.userSvc.AssignRole(c.Request.Context(), req.Email, role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func respondError(c *gin.Context, err error) {
	if kind := workflow.KindOf(err); kind != "" {
		c.JSON(kind.HTTPStatus(), gin.H{"kind": string(kind), "error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"kind": "INTERNAL", "error": "internal error"})
}
