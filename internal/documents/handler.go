package documents

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/DevS-25/Paperless/internal/auth"
	"github.com/DevS-25/Paperless/internal/users"
	"github.com/DevS-25/Paperless/internal/workflow"
)

type Handler struct {
	service Service
	users   *users.Service
	engine  *workflow.Engine
}

func NewHandler(service Service, userSvc *users.Service, engine *workflow.Engine) *Handler {
	return &Handler{service: service, users: userSvc, engine: engine}
}

// RegisterRoutes mounts the student surface plus one route group per stage
// role. The per-role groups are generated from the approval graph, so a
// new stage role or forward edge shows up as routes without handler work.
func (h *Handler) RegisterRoutes(r *gin.Engine, m *auth.Middleware) {
	student := r.Group("/student", m.Authenticate(), m.RequireRole(workflow.RoleStudent))
	{
		student.GET("/mentors", h.Mentors)
		student.GET("/documents", h.ListOwned)
		student.GET("/document/:id", h.Get)
		student.GET("/document/:id/download", h.Download)
		student.GET("/document/:id/approval-sheet", h.ApprovalSheet)
		student.GET("/document/:id/history", h.History)
		acting := student.Group("", m.RequireCompleteProfile())
		{
			acting.POST("/upload", h.Upload)
			acting.POST("/submit", h.Submit)
			acting.DELETE("/document/:id", h.DeleteDraft)
		}
	}

	for _, role := range workflow.StageRoles {
		role := role
		group := r.Group("/"+role.Segment(), m.Authenticate(), m.RequireRole(role))
		group.GET("/pending-documents", h.listPending(role))
		group.GET("/all-documents", h.listHandled(role))
		group.GET("/document/:id", h.Get)
		group.GET("/document/:id/download", h.Download)
		group.GET("/document/:id/approval-sheet", h.ApprovalSheet)
		group.GET("/document/:id/history", h.History)

		acting := group.Group("", m.RequireCompleteProfile())
		acting.POST("/approve", h.decide(role, false))
		acting.POST("/reject", h.decide(role, true))
		for _, target := range h.engine.ForwardTargets(role) {
			target := target
			acting.POST("/forward-to-"+target.Segment(), h.forward(role, target))
		}
	}
}

type uploadForm struct {
	Description string `form:"description"`
}

func (h *Handler) Upload(c *gin.Context) {
	var form uploadForm
	_ = c.ShouldBind(&form)
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"kind": string(workflow.KindValidation), "error": "file is required"})
		return
	}
	src, err := file.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer src.Close()

	doc, err := h.service.Upload(c.Request.Context(), auth.CurrentUser(c), file.Filename, form.Description, file.Size, src)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"document": doc})
}

type submitRequest struct {
	DocumentID uuid.UUID  `json:"document_id" binding:"required"`
	MentorID   *uuid.UUID `json:"mentor_id"`
}

func (h *Handler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"kind": string(workflow.KindValidation), "error": "document_id is required"})
		return
	}
	doc, err := h.service.Submit(c.Request.Context(), auth.CurrentUser(c), req.DocumentID, req.MentorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": doc})
}

func (h *Handler) DeleteDraft(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteDraft(c.Request.Context(), auth.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	actor := auth.CurrentUser(c)
	doc, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"document": doc,
		"actions":  h.service.AllowedActions(doc, actor),
	})
}

// Download streams the stored file. The reader is tied to the request
// context, so a client navigating away cancels the fetch.
func (h *Handler) Download(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	doc, body, err := h.service.Open(c.Request.Context(), auth.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	defer body.Close()
	c.DataFromReader(http.StatusOK, doc.FileSize, doc.FileType, body, map[string]string{
		"Content-Disposition": `inline; filename="` + doc.FileName + `"`,
	})
}

func (h *Handler) ApprovalSheet(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	url, err := h.service.ApprovalSheetURL(c.Request.Context(), auth.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *Handler) History(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	entries, err := h.service.History(c.Request.Context(), auth.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}

func (h *Handler) ListOwned(c *gin.Context) {
	docs, err := h.service.ListOwned(c.Request.Context(), auth.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (h *Handler) Mentors(c *gin.Context) {
	user := auth.CurrentUser(c)
	department := c.Query("department")
	if department == "" {
		department = user.Department
	}
	mentors, err := h.users.Mentors(c.Request.Context(), department)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mentors": mentors})
}

func (h *Handler) listPending(role workflow.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		docs, err := h.service.ListPending(c.Request.Context(), auth.CurrentUser(c), role)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"documents": docs})
	}
}

func (h *Handler) listHandled(role workflow.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		docs, err := h.service.ListHandled(c.Request.Context(), auth.CurrentUser(c), role)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"documents": docs})
	}
}

type decisionRequest struct {
	DocumentID uuid.UUID `json:"document_id" binding:"required"`
	Reason     string    `json:"reason"`
}

func (h *Handler) decide(role workflow.Role, reject bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req decisionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"kind": string(workflow.KindValidation), "error": "document_id is required"})
			return
		}
		var (
			doc *Document
			err error
		)
		if reject {
			doc, err = h.service.Reject(c.Request.Context(), auth.CurrentUser(c), role, req.DocumentID, req.Reason)
		} else {
			doc, err = h.service.Approve(c.Request.Context(), auth.CurrentUser(c), role, req.DocumentID)
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"document": doc})
	}
}

type forwardRequest struct {
	DocumentID   uuid.UUID  `json:"document_id" binding:"required"`
	TargetUserID *uuid.UUID `json:"target_user_id"`
}

func (h *Handler) forward(role, target workflow.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req forwardRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"kind": string(workflow.KindValidation), "error": "document_id is required"})
			return
		}
		doc, err := h.service.Forward(c.Request.Context(), auth.CurrentUser(c), role, req.DocumentID, target, req.TargetUserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"document": doc})
	}
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"kind": string(workflow.KindValidation), "error": "invalid document id"})
		return uuid.Nil, false
	}
	return id, true
}

func respondError(c *gin.Context, err error) {
	if kind := workflow.KindOf(err); kind != "" {
		c.JSON(kind.HTTPStatus(), gin.H{"kind": string(kind), "error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"kind": "INTERNAL", "error": "internal error"})
}
