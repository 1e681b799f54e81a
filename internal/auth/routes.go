package auth

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the authentication and profile endpoints.
func RegisterRoutes(r *gin.Engine, h *Handler, m *Middleware) {
	group := r.Group("/auth")
	{
		group.POST("/google-login", h.GoogleLogin)
		group.POST("/admin-login", h.AdminLogin)

		me := group.Group("", m.Authenticate())
		{
			me.GET("/me", h.Me)
			me.PUT("/me", h.UpdateProfile)
			me.POST("/signature", h.UploadSignature)
		}
	}
}
