package handler

import (
	"net/http"

	"Forum_Hub/internal/service"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	svc *service.NotificationService
}

func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// List 当前用户的通知，倒序
func (h *NotificationHandler) List(c *gin.Context) {
	userID, _ := identity(c)

	views, err := h.svc.List(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": views})
}

// MarkRead 标记已读并返回最新未读数，重复标记幂等
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, _ := identity(c)

	count, err := h.svc.MarkRead(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unreadCount": count})
}

// UnreadCount 轮询兜底接口，websocket 不可用时前端退回这里
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, _ := identity(c)

	count, err := h.svc.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unreadCount": count})
}
