package service

import (
	"context"
	"time"

	"Forum_Hub/internal/model"
)

// 读侧投影：嵌套展开作者摘要、评论和回复，替代裸 id 列表

type AuthorSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// ParentReplyRef 父回复只保留 id 和作者名，不带全文
type ParentReplyRef struct {
	ID             string `json:"id"`
	AuthorUsername string `json:"authorUsername"`
}

type ReplyView struct {
	ID        string          `json:"id"`
	PostID    string          `json:"postId"`
	CommentID string          `json:"commentId"`
	Text      string          `json:"text"`
	Author    AuthorSummary   `json:"author"`
	ReplyTo   *ParentReplyRef `json:"replyId,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type CommentView struct {
	ID         string        `json:"id"`
	PostID     string        `json:"postId"`
	Text       string        `json:"text"`
	Author     AuthorSummary `json:"author"`
	Replies    []ReplyView   `json:"replies"`
	ReplyCount int           `json:"replyCount"`
	CreatedAt  time.Time     `json:"createdAt"`
}

type PostView struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Text         string        `json:"text"`
	Attachments  []string      `json:"attachments"`
	Pinned       bool          `json:"pinned"`
	Author       AuthorSummary `json:"author"`
	Comments     []CommentView `json:"comments"`
	CommentCount int           `json:"commentCount"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

type PageMeta struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalPosts   int64 `json:"totalPosts"`
	PostsPerPage int   `json:"postsPerPage"`
}

func authorSummary(users map[string]model.User, id string) AuthorSummary {
	if u, ok := users[id]; ok {
		return AuthorSummary{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
	}
	// 作者已删号时只回 id
	return AuthorSummary{ID: id}
}

func replyView(rep model.Reply, parent *model.Reply, users map[string]model.User) ReplyView {
	v := ReplyView{
		ID:        rep.ID,
		PostID:    rep.PostID,
		CommentID: rep.CommentID,
		Text:      rep.Text,
		Author:    authorSummary(users, rep.AuthorID),
		CreatedAt: rep.CreatedAt,
		UpdatedAt: rep.UpdatedAt,
	}
	// 父回复已被删除时按缺失处理，不展示悬挂引用
	if parent != nil {
		v.ReplyTo = &ParentReplyRef{
			ID:             parent.ID,
			AuthorUsername: authorSummary(users, parent.AuthorID).Username,
		}
	}
	return v
}

// buildPostViews 组装帖子读模型。newestComments 控制评论排序：
// 列表页评论倒序，详情页评论正序；回复始终正序
func (s *ForumService) buildPostViews(ctx context.Context, posts []model.Post, newestComments bool) ([]PostView, error) {
	if len(posts) == 0 {
		return []PostView{}, nil
	}

	postIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
	}

	comments, err := s.comments.ListByPostIDs(ctx, postIDs)
	if err != nil {
		return nil, err
	}
	commentIDs := make([]string, 0, len(comments))
	commentsByPost := make(map[string][]model.Comment)
	for _, c := range comments {
		commentIDs = append(commentIDs, c.ID)
		commentsByPost[c.PostID] = append(commentsByPost[c.PostID], c)
	}

	replies, err := s.replies.ListByCommentIDs(ctx, commentIDs)
	if err != nil {
		return nil, err
	}
	repliesByComment := make(map[string][]model.Reply)
	replyByID := make(map[string]model.Reply, len(replies))
	for _, rep := range replies {
		repliesByComment[rep.CommentID] = append(repliesByComment[rep.CommentID], rep)
		replyByID[rep.ID] = rep
	}

	users, err := s.collectUsers(ctx, posts, comments, replies, replyByID)
	if err != nil {
		return nil, err
	}

	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		pcs := commentsByPost[p.ID]
		commentViews := make([]CommentView, 0, len(pcs))
		for _, c := range pcs {
			crs := repliesByComment[c.ID]
			replyViews := make([]ReplyView, 0, len(crs))
			for _, rep := range crs {
				var parent *model.Reply
				if rep.ParentID != nil {
					if pr, ok := replyByID[*rep.ParentID]; ok {
						parent = &pr
					}
				}
				replyViews = append(replyViews, replyView(rep, parent, users))
			}
			commentViews = append(commentViews, CommentView{
				ID:         c.ID,
				PostID:     c.PostID,
				Text:       c.Text,
				Author:     authorSummary(users, c.AuthorID),
				Replies:    replyViews,
				ReplyCount: len(replyViews),
				CreatedAt:  c.CreatedAt,
			})
		}
		if newestComments {
			reverse(commentViews)
		}
		views = append(views, PostView{
			ID:           p.ID,
			Title:        p.Title,
			Text:         p.Text,
			Attachments:  p.Attachments,
			Pinned:       p.Pinned,
			Author:       authorSummary(users, p.AuthorID),
			Comments:     commentViews,
			CommentCount: len(commentViews),
			CreatedAt:    p.CreatedAt,
			UpdatedAt:    p.UpdatedAt,
		})
	}
	return views, nil
}

func (s *ForumService) collectUsers(ctx context.Context, posts []model.Post, comments []model.Comment, replies []model.Reply, replyByID map[string]model.Reply) (map[string]model.User, error) {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, p := range posts {
		add(p.AuthorID)
	}
	for _, c := range comments {
		add(c.AuthorID)
	}
	for _, rep := range replies {
		add(rep.AuthorID)
		if rep.ParentID != nil {
			if parent, ok := replyByID[*rep.ParentID]; ok {
				add(parent.AuthorID)
			}
		}
	}

	list, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	users := make(map[string]model.User, len(list))
	for _, u := range list {
		users[u.ID] = u
	}
	return users, nil
}

func reverse(views []CommentView) {
	for i, j := 0, len(views)-1; i < j; i, j = i+1, j-1 {
		views[i], views[j] = views[j], views[i]
	}
}
