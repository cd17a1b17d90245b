package websocket

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"

	"raidserver/models"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Hub はルームごとのWebsocket購読者を管理し、
// RedisのPub/Subで届いた変更通知をそのルームの全購読者に流します。
// 通知はペイロードを持たず、受け取った側がスナップショットを取り直す
type Hub struct {
	mu     sync.Mutex
	rooms  map[uint]map[*models.Client]bool
	rdb    *redis.Client
	logger *zap.Logger
}

func NewHub(rdb *redis.Client, logger *zap.Logger) *Hub {
	return &Hub{
		rooms:  make(map[uint]map[*models.Client]bool),
		rdb:    rdb,
		logger: logger,
	}
}

// Run はRedisのパターン購読を開始し、届いた通知をルーム内にブロードキャストします。
// ctxのキャンセルで停止する
func (h *Hub) Run(ctx context.Context) {
	pubsub := h.rdb.PSubscribe(ctx, "raid:room:*")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			roomID, err := roomIDFromChannel(msg.Channel)
			if err != nil {
				h.logger.Error("Invalid pubsub channel name", zap.String("channel", msg.Channel))
				continue
			}
			h.Broadcast(roomID)
		}
	}
}

// Register はクライアントをルームの購読者リストに追加します。
func (h *Hub) Register(client *models.Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subscribers, ok := h.rooms[client.RoomID]
	if !ok {
		subscribers = make(map[*models.Client]bool)
		h.rooms[client.RoomID] = subscribers
	}
	subscribers[client] = true
	h.logger.Info("New subscriber added",
		zap.Uint("RoomID", client.RoomID), zap.String("SessionID", client.SessionID))
}

// Unregister はクライアントを購読者リストから外します。
func (h *Hub) Unregister(client *models.Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subscribers, ok := h.rooms[client.RoomID]; ok {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.rooms, client.RoomID)
		}
	}
	h.logger.Info("Subscriber removed",
		zap.Uint("RoomID", client.RoomID), zap.String("SessionID", client.SessionID))
}

// Broadcast はルームの全購読者に変更通知を送ります。
func (h *Hub) Broadcast(roomID uint) {
	message := map[string]interface{}{
		"type":   "roomChanged",
		"roomId": roomID,
	}
	messageJSON, _ := json.Marshal(message)

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.rooms[roomID] {
		if err := client.Conn.WriteMessage(websocket.TextMessage, messageJSON); err != nil {
			h.logger.Error("Failed to push room change",
				zap.Uint("RoomID", roomID), zap.Error(err))
		}
	}
}

func roomIDFromChannel(channel string) (uint, error) {
	idx := strings.LastIndex(channel, ":")
	roomID, err := strconv.ParseUint(channel[idx+1:], 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(roomID), nil
}
