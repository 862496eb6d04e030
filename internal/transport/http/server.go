package http

import (
	"github.com/gin-gonic/gin"

	"autorag/internal/bootstrap"
	"autorag/internal/transport/http/handler"
	"autorag/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.RequestLog(app.Log.Named("http")), gin.Recovery())

	log := app.Log.Named("handler")
	svc := app.Services
	healthHandler := handler.NewHealthHandler(app.Config.App.Name, app.Config.App.Env, app.StartedAt, app.HealthChecks())
	authHandler := handler.NewAuthHandler(svc.Auth, svc.Accounts, log)
	accountHandler := handler.NewAccountHandler(svc.Accounts, log)
	documentHandler := handler.NewDocumentHandler(svc.Documents, log)
	configHandler := handler.NewConfigHandler(svc.Configs, log)
	chatHandler := handler.NewChatHandler(svc.Chat, log)
	shareHandler := handler.NewShareHandler(svc.Share, log)

	router.GET("/healthz", healthHandler.Check)

	authRequired := middleware.AuthJWT(app.Config.Auth.JWTSecret, app.Users)
	v1 := router.Group("/api/v1")

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", authRequired, authHandler.Me)

	secured := v1.Group("")
	secured.Use(authRequired)

	secured.GET("/account", accountHandler.Get)
	secured.PUT("/account", accountHandler.Update)
	secured.PUT("/account/password", accountHandler.ChangePassword)

	secured.GET("/documents", documentHandler.List)
	secured.POST("/documents", documentHandler.Upload)
	secured.GET("/documents/:id/content", documentHandler.Download)

	secured.GET("/config", configHandler.Get)
	secured.PUT("/config", configHandler.Save)

	secured.POST("/chat/messages", chatHandler.Send)
	secured.GET("/chat/history", chatHandler.History)

	secured.GET("/share/link", shareHandler.GetLink)
	secured.PUT("/share/link/enabled", shareHandler.SetLinkEnabled)
	secured.GET("/share/members", shareHandler.ListMembers)
	secured.POST("/share/members", shareHandler.AddMember)
	secured.DELETE("/share/members/:id", shareHandler.RemoveMember)

	return router
}
