package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the gin engine: public auth routes, the protected group
// behind the authentication gate, and a health probe.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(h.logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	users := router.Group("/api/v1/users")

	users.POST("/register", h.Register)
	users.POST("/login", h.Login)
	users.POST("/refresh-token", h.Refresh)

	protected := users.Group("")
	protected.Use(h.Authenticate())

	protected.POST("/logout", h.Logout)
	protected.GET("/me", h.Me)
	protected.POST("/change-password", h.ChangePassword)
	protected.PATCH("/update-account", h.UpdateAccount)
	protected.PATCH("/avatar", h.UpdateAvatar)
	protected.PATCH("/cover", h.UpdateCover)

	return router
}
