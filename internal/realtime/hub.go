// Package realtime 给在线用户推送未读通知数的 websocket 通道。
// 每个用户一个房间，同一用户的多个连接都收到相同推送。
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
)

// 事件名与前端约定保持一致
const (
	EventNotificationCount = "notification_count"
	EventGetCount          = "get_notification_count"
	EventNotificationError = "notification_error"
)

// Event websocket 帧的统一外层
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// 事件载荷统一为对象，裸标量对不上前端的解包
type countPayload struct {
	Count int64 `json:"count"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// CountSource 按用户现算未读数
type CountSource interface {
	UnreadCount(ctx context.Context, recipientID string) (int64, error)
}

type pushMsg struct {
	userID string
	data   []byte
}

// Hub 房间表只在 Run 的 goroutine 里改动，其余 goroutine 通过 channel 交互
type Hub struct {
	rooms      map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	push       chan pushMsg
	done       chan struct{}
	counts     CountSource
	logger     *slog.Logger
}

func NewHub(counts CountSource, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		push:       make(chan pushMsg, 64),
		done:       make(chan struct{}),
		counts:     counts,
		logger:     logger,
	}
}

// admit 注册连接；hub 已停转时返回 false，避免升级和关停竞争时卡死
func (h *Hub) admit(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) evict(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Run 在独立goroutine里跑，ctx取消时关闭所有连接
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for _, room := range h.rooms {
				for c := range room {
					close(c.send)
				}
			}
			h.rooms = make(map[string]map[*Client]struct{})
			return
		case c := <-h.register:
			room, ok := h.rooms[c.userID]
			if !ok {
				room = make(map[*Client]struct{})
				h.rooms[c.userID] = room
			}
			room[c] = struct{}{}
		case c := <-h.unregister:
			if room, ok := h.rooms[c.userID]; ok {
				if _, ok := room[c]; ok {
					delete(room, c)
					close(c.send)
					if len(room) == 0 {
						delete(h.rooms, c.userID)
					}
				}
			}
		case msg := <-h.push:
			room, ok := h.rooms[msg.userID]
			if !ok {
				// 用户不在线，静默丢弃
				continue
			}
			for c := range room {
				select {
				case c.send <- msg.data:
				default:
					// 慢连接直接踢掉，不阻塞hub
					delete(room, c)
					close(c.send)
				}
			}
			if len(room) == 0 {
				delete(h.rooms, msg.userID)
			}
		}
	}
}

// PushCount 非阻塞；hub 停转或队列满时丢弃，未读数下次查询会重新算
func (h *Hub) PushCount(userID string, count int64) {
	data, err := json.Marshal(Event{Event: EventNotificationCount, Data: countPayload{Count: count}})
	if err != nil {
		return
	}
	select {
	case h.push <- pushMsg{userID: userID, data: data}:
	default:
		h.logger.Warn("push queue full, dropping count", "user", userID)
	}
}
