package raid

import (
	"context"

	"raidserver/models"
)

// Store はレイドのデータストアを抽象化します。
// 1レコード単位の作成・取得・更新のみ。トランザクションは張らない
type Store interface {
	CreateRoom(ctx context.Context, room *models.RaidRoom) error
	FindRoomByID(ctx context.Context, roomID uint) (*models.RaidRoom, error)
	// FindRoomByCode はコードで検索します。呼び出し側で大文字に正規化しておくこと
	FindRoomByCode(ctx context.Context, roomCode string) (*models.RaidRoom, error)
	UpdateRoom(ctx context.Context, room *models.RaidRoom) error

	CreatePlayer(ctx context.Context, player *models.RaidPlayer) error
	FindPlayerByID(ctx context.Context, playerID uint) (*models.RaidPlayer, error)
	UpdatePlayer(ctx context.Context, player *models.RaidPlayer) error
	// ListPlayersByRoom はJoinedAtの昇順で返します（手番順の根拠）
	ListPlayersByRoom(ctx context.Context, roomID uint) ([]models.RaidPlayer, error)
	CountPlayersByRoom(ctx context.Context, roomID uint) (int64, error)

	AppendBattleLog(ctx context.Context, entry *models.BattleLogEntry) error
	// ListBattleLog は作成時刻の昇順で返します
	ListBattleLog(ctx context.Context, roomID uint) ([]models.BattleLogEntry, error)
}
