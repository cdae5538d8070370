package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"expense-platform/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	authSvc *service.AuthService,
	authH *AuthHandler,
	expenseH *ExpenseHandler,
	uploadDir string,
	publicUploadPath string,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging y recovery.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Expense platform is running!"})
	})

	// Unicas rutas anonimas ademas de health.
	r.POST("/signup", authH.Signup)
	r.POST("/login", authH.Login)
	r.POST("/logout", authH.Logout)

	authed := r.Group("")
	authed.Use(SessionAuthMiddleware(authSvc))
	authed.GET("/me", authH.Me)
	authed.GET("/expenses", expenseH.List)
	authed.POST("/expenses", expenseH.Submit)

	admin := authed.Group("/admin")
	admin.GET("/expenses", expenseH.AdminList)
	admin.POST("/expenses/:id/approve", expenseH.Approve)
	admin.POST("/expenses/:id/reject", expenseH.Reject)

	// Sirve el directorio de uploads para que receipt_url resuelva.
	r.Static(publicUploadPath, uploadDir)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
