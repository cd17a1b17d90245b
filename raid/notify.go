package raid

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Notifier はルームの変更をリアルタイム購読者に知らせるための口です。
// 通知自体に中身はなく「ルームXが変わった」という信号だけを運ぶ
type Notifier interface {
	RoomChanged(ctx context.Context, roomID uint)
}

// RoomChannel はルームごとのRedis Pub/Subチャンネル名を返します。
func RoomChannel(roomID uint) string {
	return fmt.Sprintf("raid:room:%d", roomID)
}

// RedisNotifier はRedis Pub/SubによるNotifier実装です。
type RedisNotifier struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRedisNotifier(rdb *redis.Client, logger *zap.Logger) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, logger: logger}
}

func (n *RedisNotifier) RoomChanged(ctx context.Context, roomID uint) {
	// 通知の失敗でリクエスト自体を失敗させない。ログだけ残す
	if err := n.rdb.Publish(ctx, RoomChannel(roomID), "changed").Err(); err != nil {
		n.logger.Error("ルーム変更通知の発行に失敗しました",
			zap.Uint("roomID", roomID), zap.Error(err))
	}
}
