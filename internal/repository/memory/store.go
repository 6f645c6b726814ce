// Package memory 内存仓储实现：联调与测试用，与 mysql 实现同一组接口
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"Forum_Hub/internal/model"
	"Forum_Hub/internal/repository"
)

type Store struct {
	mu            sync.RWMutex
	users         map[string]model.User
	posts         map[string]model.Post
	comments      map[string]model.Comment
	replies       map[string]model.Reply
	notifications map[string]model.Notification
	outbox        []model.ForumOutbox
	outboxSeq     uint64

	// order 记录每个实体的插入序号，创建时间相同时作次序键
	order map[string]uint64
	seq   uint64
}

func New() *Store {
	return &Store{
		users:         make(map[string]model.User),
		posts:         make(map[string]model.Post),
		comments:      make(map[string]model.Comment),
		replies:       make(map[string]model.Reply),
		notifications: make(map[string]model.Notification),
		order:         make(map[string]uint64),
	}
}

func (s *Store) note(id string) {
	s.seq++
	s.order[id] = s.seq
}

func (s *Store) before(aID string, aT time.Time, bID string, bT time.Time) bool {
	if !aT.Equal(bT) {
		return aT.Before(bT)
	}
	return s.order[aID] < s.order[bID]
}

func (s *Store) Users() repository.UserRepository                 { return &userRepo{s} }
func (s *Store) Posts() repository.PostRepository                 { return &postRepo{s} }
func (s *Store) Comments() repository.CommentRepository           { return &commentRepo{s} }
func (s *Store) Replies() repository.ReplyRepository              { return &replyRepo{s} }
func (s *Store) Notifications() repository.NotificationRepository { return &notificationRepo{s} }
func (s *Store) Outbox() repository.OutboxRepository              { return &outboxRepo{s} }

type postRepo struct{ s *Store }

func (r *postRepo) Create(_ context.Context, post *model.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.posts[post.ID] = *post
	r.s.note(post.ID)
	return nil
}

func (r *postRepo) FindByID(_ context.Context, id string) (*model.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *postRepo) Update(_ context.Context, post *model.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.posts[post.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.posts[post.ID] = *post
	return nil
}

func (r *postRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.posts, id)
	return nil
}

func (r *postRepo) List(_ context.Context, f repository.PostFilter) ([]model.Post, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	search := strings.ToLower(f.Search)
	var filtered []model.Post
	for _, p := range r.s.posts {
		if !f.IncludePinned && p.Pinned {
			continue
		}
		if f.AuthorID != "" && p.AuthorID != f.AuthorID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Title), search) &&
			!strings.Contains(strings.ToLower(p.Text), search) {
			continue
		}
		filtered = append(filtered, p)
	}

	sort.Slice(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		if f.Oldest {
			return r.s.before(a.ID, a.CreatedAt, b.ID, b.CreatedAt)
		}
		return r.s.before(b.ID, b.CreatedAt, a.ID, a.CreatedAt)
	})

	total := int64(len(filtered))
	if f.Offset >= len(filtered) {
		return nil, total, nil
	}
	end := f.Offset + f.Limit
	if f.Limit <= 0 || end > len(filtered) {
		end = len(filtered)
	}
	return filtered[f.Offset:end], total, nil
}

type commentRepo struct{ s *Store }

func (r *commentRepo) Create(_ context.Context, comment *model.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.comments[comment.ID] = *comment
	r.s.note(comment.ID)
	return nil
}

func (r *commentRepo) FindInPost(_ context.Context, id, postID string) (*model.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.comments[id]
	if !ok || c.PostID != postID {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *commentRepo) Update(_ context.Context, comment *model.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.comments[comment.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.comments[comment.ID] = *comment
	return nil
}

func (r *commentRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.comments, id)
	return nil
}

func (r *commentRepo) ListByPostIDs(_ context.Context, postIDs []string) ([]model.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	want := make(map[string]bool, len(postIDs))
	for _, id := range postIDs {
		want[id] = true
	}
	var list []model.Comment
	for _, c := range r.s.comments {
		if want[c.PostID] {
			list = append(list, c)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return r.s.before(list[i].ID, list[i].CreatedAt, list[j].ID, list[j].CreatedAt)
	})
	return list, nil
}

func (r *commentRepo) DeleteByPostID(_ context.Context, postID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, c := range r.s.comments {
		if c.PostID == postID {
			delete(r.s.comments, id)
		}
	}
	return nil
}

type replyRepo struct{ s *Store }

func (r *replyRepo) Create(_ context.Context, reply *model.Reply) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.replies[reply.ID] = *reply
	r.s.note(reply.ID)
	return nil
}

func (r *replyRepo) FindByID(_ context.Context, id string) (*model.Reply, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rep, ok := r.s.replies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rep, nil
}

func (r *replyRepo) FindInComment(_ context.Context, id, commentID, postID string) (*model.Reply, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rep, ok := r.s.replies[id]
	if !ok || rep.CommentID != commentID || rep.PostID != postID {
		return nil, repository.ErrNotFound
	}
	return &rep, nil
}

func (r *replyRepo) FindOwned(_ context.Context, id, commentID, postID, authorID string) (*model.Reply, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rep, ok := r.s.replies[id]
	if !ok || rep.CommentID != commentID || rep.PostID != postID || rep.AuthorID != authorID {
		return nil, repository.ErrNotFound
	}
	return &rep, nil
}

func (r *replyRepo) Update(_ context.Context, reply *model.Reply) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.replies[reply.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.replies[reply.ID] = *reply
	return nil
}

func (r *replyRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.replies, id)
	return nil
}

func (r *replyRepo) ListByCommentIDs(_ context.Context, commentIDs []string) ([]model.Reply, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	want := make(map[string]bool, len(commentIDs))
	for _, id := range commentIDs {
		want[id] = true
	}
	var list []model.Reply
	for _, rep := range r.s.replies {
		if want[rep.CommentID] {
			list = append(list, rep)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return r.s.before(list[i].ID, list[i].CreatedAt, list[j].ID, list[j].CreatedAt)
	})
	return list, nil
}

func (r *replyRepo) DeleteByCommentIDs(_ context.Context, commentIDs []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := make(map[string]bool, len(commentIDs))
	for _, id := range commentIDs {
		want[id] = true
	}
	for id, rep := range r.s.replies {
		if want[rep.CommentID] {
			delete(r.s.replies, id)
		}
	}
	return nil
}

type notificationRepo struct{ s *Store }

func (r *notificationRepo) Create(_ context.Context, n *model.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.notifications[n.ID] = *n
	r.s.note(n.ID)
	return nil
}

func (r *notificationRepo) FindForRecipient(_ context.Context, id, recipientID string) (*model.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n, ok := r.s.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return nil, repository.ErrNotFound
	}
	return &n, nil
}

func (r *notificationRepo) MarkRead(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok {
		return repository.ErrNotFound
	}
	n.Read = true
	n.UpdatedAt = time.Now()
	r.s.notifications[id] = n
	return nil
}

func (r *notificationRepo) ListByRecipient(_ context.Context, recipientID string) ([]model.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []model.Notification
	for _, n := range r.s.notifications {
		if n.RecipientID == recipientID {
			list = append(list, n)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return r.s.before(list[j].ID, list[j].CreatedAt, list[i].ID, list[i].CreatedAt)
	})
	return list, nil
}

func (r *notificationRepo) CountUnread(_ context.Context, recipientID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, it := range r.s.notifications {
		if it.RecipientID == recipientID && !it.Read {
			n++
		}
	}
	return n, nil
}

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users[user.ID] = *user
	r.s.note(user.ID)
	return nil
}

func (r *userRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Username == username || u.Email == username {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) FindByIDs(_ context.Context, ids []string) ([]model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []model.User
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			list = append(list, u)
		}
	}
	return list, nil
}

func (r *userRepo) UpdatePassword(_ context.Context, id, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Password = hash
	u.UpdatedAt = time.Now()
	r.s.users[id] = u
	return nil
}

type outboxRepo struct{ s *Store }

func (r *outboxRepo) Insert(_ context.Context, ob *model.ForumOutbox) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.outboxSeq++
	ob.ID = r.s.outboxSeq
	r.s.outbox = append(r.s.outbox, *ob)
	return nil
}

func (r *outboxRepo) ListPending(_ context.Context, batchSize int) ([]model.ForumOutbox, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []model.ForumOutbox
	for _, ob := range r.s.outbox {
		if ob.Status == 0 {
			list = append(list, ob)
			if len(list) >= batchSize {
				break
			}
		}
	}
	return list, nil
}

func (r *outboxRepo) MarkSent(_ context.Context, id uint64) error {
	return r.setStatus(id, 1, false)
}

func (r *outboxRepo) MarkFailed(_ context.Context, id uint64) error {
	return r.setStatus(id, 2, true)
}

func (r *outboxRepo) setStatus(id uint64, status int8, bumpRetry bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.outbox {
		if r.s.outbox[i].ID == id {
			r.s.outbox[i].Status = status
			if bumpRetry {
				r.s.outbox[i].Retry++
			}
			r.s.outbox[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return repository.ErrNotFound
}
