package handler

import (
	"context"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"Forum_Hub/internal/blob"
	"Forum_Hub/internal/model"
	"Forum_Hub/internal/pkg"
	"Forum_Hub/internal/service"

	"github.com/gin-gonic/gin"
)

// 附件约束与前端约定一致
const maxAttachmentSize = 5 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type ForumHandler struct {
	svc           *service.ForumService
	notifications *service.NotificationService
	blobs         blob.Store
	logger        *slog.Logger
}

func NewForumHandler(svc *service.ForumService, notifications *service.NotificationService, blobs blob.Store, logger *slog.Logger) *ForumHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ForumHandler{svc: svc, notifications: notifications, blobs: blobs, logger: logger}
}

type CommentReq struct {
	Text string `json:"text"`
}

type ReplyReq struct {
	Text    string  `json:"text"`
	ReplyID *string `json:"replyId"` // 回复回复时带父回复id
}

// ListPosts 列表页，分页+筛选
func (h *ForumHandler) ListPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	views, meta, err := h.svc.ListPosts(c.Request.Context(), service.ListPostsQuery{
		Page:          page,
		Limit:         limit,
		Oldest:        c.Query("sort") == "oldest",
		// 置顶帖默认不进普通信息流，显式 includePinned=true 才带上
		IncludePinned: c.Query("includePinned") == "true",
		AuthorID:      c.Query("authorId"),
		Search:        c.Query("search"),
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":        views,
		"currentPage":  meta.CurrentPage,
		"totalPages":   meta.TotalPages,
		"totalPosts":   meta.TotalPosts,
		"postsPerPage": meta.PostsPerPage,
	})
}

func (h *ForumHandler) GetPost(c *gin.Context) {
	view, err := h.svc.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// CreatePost 接收 multipart 表单：title、text、pinned 加附件文件
func (h *ForumHandler) CreatePost(c *gin.Context) {
	userID, isAdmin := identity(c)

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid multipart form"})
		return
	}

	attachments, err := h.saveAttachments(c.Request.Context(), nil, form.File["attachments"])
	if err != nil {
		fail(c, err)
		return
	}

	post, err := h.svc.CreatePost(
		c.Request.Context(),
		userID,
		c.PostForm("title"),
		c.PostForm("text"),
		attachments,
		c.PostForm("pinned") == "true",
		isAdmin,
	)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

// UpdatePost 整体替换：保留的旧附件路径由表单 attachments 字段带回，
// 新文件照常上传，两者合并为新附件列表
func (h *ForumHandler) UpdatePost(c *gin.Context) {
	userID, isAdmin := identity(c)

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid multipart form"})
		return
	}

	attachments, err := h.saveAttachments(c.Request.Context(), form.Value["attachments"], form.File["attachments"])
	if err != nil {
		fail(c, err)
		return
	}

	post, err := h.svc.UpdatePost(
		c.Request.Context(),
		c.Param("id"),
		userID,
		c.PostForm("title"),
		c.PostForm("text"),
		attachments,
		c.PostForm("pinned") == "true",
		isAdmin,
	)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

func (h *ForumHandler) DeletePost(c *gin.Context) {
	userID, isAdmin := identity(c)

	if err := h.svc.DeletePost(c.Request.Context(), c.Param("id"), userID, isAdmin); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "post deleted"})
}

// AddComment 先应答，再触发通知，互不拖累
func (h *ForumHandler) AddComment(c *gin.Context) {
	userID, _ := identity(c)

	var req CommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	comment, post, err := h.svc.AddComment(c.Request.Context(), c.Param("id"), userID, req.Text)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)

	if err := h.notifications.NotifyOnComment(c.Request.Context(), post, comment); err != nil {
		h.logger.Error("comment notification failed", "post", post.ID, "err", err)
	}
}

func (h *ForumHandler) EditComment(c *gin.Context) {
	userID, _ := identity(c)

	var req CommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	comment, err := h.svc.EditComment(c.Request.Context(), c.Param("id"), c.Param("commentId"), userID, req.Text)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *ForumHandler) DeleteComment(c *gin.Context) {
	userID, isAdmin := identity(c)

	if err := h.svc.DeleteComment(c.Request.Context(), c.Param("id"), c.Param("commentId"), userID, isAdmin); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "comment deleted"})
}

func (h *ForumHandler) AddReply(c *gin.Context) {
	userID, _ := identity(c)

	var req ReplyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}
	parentID := ""
	if req.ReplyID != nil {
		parentID = *req.ReplyID
	}

	created, err := h.svc.AddReply(c.Request.Context(), c.Param("id"), c.Param("commentId"), userID, req.Text, parentID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, created.View)

	var parentReplyID *string
	if created.ParentReply != nil {
		parentReplyID = &created.ParentReply.ID
	}
	if err := h.notifications.NotifyOnReply(c.Request.Context(), created.RecipientID, created.Reply, parentReplyID); err != nil {
		h.logger.Error("reply notification failed", "reply", created.Reply.ID, "err", err)
	}
}

func (h *ForumHandler) EditReply(c *gin.Context) {
	userID, _ := identity(c)

	var req ReplyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	view, err := h.svc.EditReply(c.Request.Context(), c.Param("id"), c.Param("commentId"), c.Param("replyId"), userID, req.Text)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *ForumHandler) DeleteReply(c *gin.Context) {
	userID, isAdmin := identity(c)

	if err := h.svc.DeleteReply(c.Request.Context(), c.Param("id"), c.Param("commentId"), c.Param("replyId"), userID, isAdmin); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "reply deleted"})
}

// saveAttachments 合并保留路径和新上传文件，校验数量、大小和类型
func (h *ForumHandler) saveAttachments(ctx context.Context, retained []string, files []*multipart.FileHeader) ([]string, error) {
	attachments := make([]string, 0, len(retained)+len(files))
	for _, p := range retained {
		if p != "" {
			attachments = append(attachments, p)
		}
	}
	if len(attachments)+len(files) > model.MaxAttachments {
		return nil, pkg.Validationf("a post can carry at most %d attachments", model.MaxAttachments)
	}

	for _, fh := range files {
		if fh.Size > maxAttachmentSize {
			return nil, pkg.Validationf("attachment %s exceeds the 5MB limit", fh.Filename)
		}
		contentType := fh.Header.Get("Content-Type")
		if !allowedImageTypes[contentType] {
			return nil, pkg.Validationf("attachment %s is not a supported image type", fh.Filename)
		}

		f, err := fh.Open()
		if err != nil {
			return nil, pkg.Internalf("read attachment failed")
		}
		path, err := h.blobs.Save(ctx, fh.Filename, f, fh.Size, contentType)
		f.Close()
		if err != nil {
			return nil, pkg.Internalf("store attachment failed")
		}
		attachments = append(attachments, path)
	}
	return attachments, nil
}
