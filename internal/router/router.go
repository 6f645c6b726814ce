package router

import (
	"Forum_Hub/internal/handler"

	"github.com/gin-gonic/gin"
)

// Deps 路由装配所需的处理器，main 负责构建
type Deps struct {
	Forum         *handler.ForumHandler
	Notifications *handler.NotificationHandler
	User          *handler.UserHandler
	Email         *handler.EmailHandler
	Auth          gin.HandlerFunc
	WS            gin.HandlerFunc
}

func InitRouter(d Deps) *gin.Engine {
	r := gin.Default()

	// 邮件相关接口
	emailGroup := r.Group("/api/email")
	{
		emailGroup.POST("/code", d.Email.SendCode)
		emailGroup.POST("/verify", d.Email.VerifyCode)
	}

	// 用户相关接口
	userGroup := r.Group("/api/user")
	{
		userGroup.POST("/register", d.User.Register)
		userGroup.POST("/login", d.User.Login)
		userGroup.POST("/reset", d.User.ResetPassword)
		userGroup.GET("/:id", d.User.Profile)
	}

	// token相关接口
	tokenGroup := r.Group("/api/token")
	{
		tokenGroup.POST("/refresh", d.User.TokenRefresh)
	}

	// 登录态接口
	authGroup := r.Group("/api/auth")
	authGroup.Use(d.Auth)
	{
		authGroup.POST("/logout", d.User.Logout)
		authGroup.POST("/change-password", d.User.ChangePassword)
	}

	// 帖子浏览无需登录
	forumGroup := r.Group("/api/forum")
	{
		forumGroup.GET("", d.Forum.ListPosts)
		forumGroup.GET("/:id", d.Forum.GetPost)
	}

	// 帖子写操作
	forumAuthGroup := r.Group("/api/forum")
	forumAuthGroup.Use(d.Auth)
	{
		forumAuthGroup.POST("", d.Forum.CreatePost)
		forumAuthGroup.PATCH("/:id", d.Forum.UpdatePost)
		forumAuthGroup.DELETE("/:id", d.Forum.DeletePost)

		forumAuthGroup.POST("/:id/comment", d.Forum.AddComment)
		forumAuthGroup.PATCH("/:id/comment/:commentId", d.Forum.EditComment)
		forumAuthGroup.DELETE("/:id/comment/:commentId", d.Forum.DeleteComment)

		forumAuthGroup.POST("/:id/comment/:commentId/reply", d.Forum.AddReply)
		forumAuthGroup.PATCH("/:id/comment/:commentId/reply/:replyId", d.Forum.EditReply)
		forumAuthGroup.DELETE("/:id/comment/:commentId/reply/:replyId", d.Forum.DeleteReply)
	}

	// 通知相关接口
	notificationGroup := r.Group("/api/notifications")
	notificationGroup.Use(d.Auth)
	{
		notificationGroup.GET("", d.Notifications.List)
		notificationGroup.GET("/unread-count", d.Notifications.UnreadCount)
		notificationGroup.PUT("/:id", d.Notifications.MarkRead)
	}

	// websocket 未读数通道
	wsGroup := r.Group("/ws")
	wsGroup.Use(d.Auth)
	{
		wsGroup.GET("", d.WS)
	}

	// 附件静态文件
	r.Static("/media", "./media")

	return r
}
