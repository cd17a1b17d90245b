package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RaidRoom モデルの定義
// ステータスは waiting → battle → finished の順にのみ遷移する（逆戻りしない）
type RaidRoom struct {
	gorm.Model
	RoomCode            string         `gorm:"index;not null" json:"roomCode"`          // 参加用の6文字コード
	Status              string         `gorm:"not null;default:'waiting'" json:"status"` // "waiting", "battle", "finished"
	CurrentTurnPlayerID *uint          `json:"currentTurnPlayerId"`                      // 手番プレイヤーのID（waiting中は無効）
	TurnNumber          int            `gorm:"default:0" json:"turnNumber"`              // ラウンド番号。バトル開始時に1
	MasterPokemon       datatypes.JSON `json:"masterPokemon"`                            // ボスポケモンのデータ（中身はクライアント任せ）
}
