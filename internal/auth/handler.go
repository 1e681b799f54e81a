package auth

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/DevS-25/Paperless/internal/users"
	"github.com/DevS-25/Paperless/internal/workflow"
	"github.com/DevS-25/Paperless/pkg/storage"
)

// AdminCredentials is the single out-of-band admin account. The hash is
// configured, never stored in the users table.
type AdminCredentials struct {
	Email        string
	PasswordHash string
}

type Handler struct {
	tokens  *TokenManager
	users   *users.Service
	google  GoogleVerifier
	store   storage.Client
	admin   AdminCredentials
	adminID uuid.UUID
	bucket  string
	logger  *zap.Logger
}

func NewHandler(tokens *TokenManager, userSvc *users.Service, google GoogleVerifier, store storage.Client, admin AdminCredentials, bucket string, logger *zap.Logger) *Handler {
	return &Handler{
		tokens:  tokens,
		users:   userSvc,
		google:  google,
		store:   store,
		admin:   admin,
		adminID: uuid.NewSHA1(uuid.NameSpaceOID, []byte("paperless-admin")),
		bucket:  bucket,
		logger:  logger,
	}
}

type googleLoginRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

// GoogleLogin exchanges a verified Google ID token for a portal session.
// First-time logins create the account with an inferred role.
func (h *Handler) GoogleLogin(c *gin.Context) {
	var req googleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"kind": string(workflow.KindValidation), "error": "id_token is required"})
		return
	}
	identity, err := h.google.Verify(c.Request.Context(), req.IDToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"kind": "UNAUTHENTICATED", "error": "google sign-in failed"})
		return
	}
	user, err := h.users.EnsureUser(c.Request.Context(), identity.Email, identity.Name, identity.Subject, identity.Picture)
	if err != nil {
		respondError(c, err)
		return
	}
	token, err := h.tokens.Issue(user.ID, user.Email, user.Roles)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":            token,
		"user":             user,
		"profile_complete": user.ProfileComplete(),
	})
}

type adminLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AdminLogin authenticates the configured admin account.
func (h *Handler) AdminLogin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"kind": string(workflow.KindValidation), "error": "email and password are required"})
		return
	}
	if !strings.EqualFold(req.Email, h.admin.Email) ||
		bcrypt.CompareHashAndPassword([]byte(h.admin.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"kind": "UNAUTHENTICATED", "error": "invalid credentials"})
		return
	}
	user, err := h.users.EnsureAdmin(c.Request.Context(), h.adminID, h.admin.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	token, err := h.tokens.Issue(user.ID, user.Email, user.Roles)
	if err != nil {
		respondError(c, err)
		return
	}
	h.logger.Info("admin login", zap.String("email", user.Email))
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(c *gin.Context) {
	user := CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"user":             user,
		"profile_complete": user.ProfileComplete(),
	})
}

// UpdateProfile applies profile changes for the authenticated user.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req users.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"kind": string(workflow.KindValidation), "error": err.Error()})
		return
	}
	user, err := h.users.UpdateProfile(c.Request.Context(), CurrentUser(c).ID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":             user,
		"profile_complete": user.ProfileComplete(),
	})
}

// UploadSignature stores the user's signature image, stamped onto the
// approval sheets they sign.
func (h *Handler) UploadSignature(c *gin.Context) {
	user := CurrentUser(c)
	file, err := c.FormFile("signature")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"kind": string(workflow.KindValidation), "error": "signature file is required"})
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".png" {
		c.JSON(http.StatusBadRequest, gin.H{"kind": string(workflow.KindValidation), "error": "signature must be a PNG image"})
		return
	}
	src, err := file.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer src.Close()

	key := fmt.Sprintf("users/%s/signature.png", user.ID)
	if err := h.store.Upload(c.Request.Context(), h.bucket, key, "image/png", src); err != nil {
		respondError(c, err)
		return
	}
	updated, err := h.users.SetSignature(c.Request.Context(), user.ID, key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": updated})
}

// respondError maps typed workflow failures to their status codes;
// anything untyped is an internal error with no detail leaked.
func respondError(c *gin.Context, err error) {
	if kind := workflow.KindOf(err); kind != "" {
		c.JSON(kind.HTTPStatus(), gin.H{"kind": string(kind), "error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"kind": "INTERNAL", "error": "internal error"})
}
