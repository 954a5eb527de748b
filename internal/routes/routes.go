package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "autodealer/docs"
	"autodealer/internal/handlers"
	"autodealer/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	tokens middleware.TokenParser,
	adminLoader middleware.AdminLoader,
	authHandler *handlers.AuthHandler,
	leadHandler *handlers.LeadHandler,
	taskHandler *handlers.LeadTaskHandler,
	extrasHandler *handlers.LeadExtrasHandler,
	feedHandler *handlers.FeedHandler,
	integrationsHandler *handlers.IntegrationsHandler,
) *gin.Engine {

	// ---- public
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.POST("/login", authHandler.Login)
	r.POST("/integrations/telegram/webhook", integrationsHandler.Webhook)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// ---- protected
	r.Use(middleware.AuthMiddleware(tokens, adminLoader))

	me := r.Group("/me")
	{
		me.GET("", authHandler.Me)
		me.GET("/telegram", integrationsHandler.TelegramSettings)
		me.POST("/telegram/link", integrationsHandler.RequestTelegramLink)
		me.DELETE("/telegram", integrationsHandler.UnlinkTelegram)
	}

	admins := r.Group("/admins", middleware.RequireSuper())
	{
		admins.POST("", authHandler.CreateAdmin)
	}

	// LEADS
	leads := r.Group("/leads", middleware.LeadAccessGuard())
	{
		leads.POST("/", leadHandler.Create)
		leads.POST("/from-chat/:chatSessionId", leadHandler.CreateFromChat)
		leads.GET("/", leadHandler.List)
		leads.GET("/stats/summary", leadHandler.Stats)
		leads.GET("/stats/unprocessed-count", leadHandler.UnprocessedCount)
		leads.GET("/feed", feedHandler.Subscribe)

		leads.GET("/:id", leadHandler.GetByID)
		leads.PUT("/:id", leadHandler.Update)
		leads.DELETE("/:id", leadHandler.Delete)
		leads.POST("/:id/convert-to-client", leadHandler.ConvertToClient)
		leads.POST("/:id/calculate-score", leadHandler.CalculateScore)
		leads.GET("/:id/activities", leadHandler.Activities)
		leads.GET("/:id/card.pdf", leadHandler.CardPDF)

		// tasks
		leads.POST("/:id/tasks", taskHandler.Create)
		leads.GET("/:id/tasks", taskHandler.List)
		leads.PUT("/tasks/:taskId", taskHandler.Update)
		leads.DELETE("/tasks/:taskId", taskHandler.Delete)
		leads.POST("/tasks/:taskId/complete", taskHandler.Complete)

		// comments
		leads.POST("/:id/comments", extrasHandler.AddComment)
		leads.GET("/:id/comments", extrasHandler.ListComments)
		leads.DELETE("/comments/:commentId", extrasHandler.DeleteComment)

		// tags
		leads.GET("/tags/all", extrasHandler.ListTags)
		leads.POST("/tags", extrasHandler.CreateTag)
		leads.GET("/:id/tags", extrasHandler.ListLeadTags)
		leads.POST("/:id/tags/:tagId", extrasHandler.AddTag)
		leads.DELETE("/:id/tags/:tagId", extrasHandler.RemoveTag)

		// meetings
		leads.POST("/:id/meetings", extrasHandler.ScheduleMeeting)
		leads.GET("/:id/meetings", extrasHandler.ListMeetings)
		leads.PUT("/meetings/:meetingId", extrasHandler.UpdateMeeting)
		leads.DELETE("/meetings/:meetingId", extrasHandler.DeleteMeeting)

		// attachments
		leads.POST("/:id/attachments", extrasHandler.AddAttachment)
		leads.GET("/:id/attachments", extrasHandler.ListAttachments)
		leads.DELETE("/attachments/:attachmentId", extrasHandler.DeleteAttachment)
	}

	return r
}
