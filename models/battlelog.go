package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BattleLogEntry モデルの定義
// 追記専用。更新も削除もしない。表示は作成時刻の昇順
type BattleLogEntry struct {
	gorm.Model
	RoomID     uint           `gorm:"index;not null" json:"roomId"`
	PlayerID   *uint          `json:"playerId"` // システムメッセージの場合はnull
	PlayerName string         `json:"playerName"`
	TurnNumber int            `json:"turnNumber"` // 記録時点のラウンド番号
	ActionType string         `gorm:"not null" json:"actionType"`
	ActionData datatypes.JSON `json:"actionData"`
}

// バトルログのアクション種別
const (
	ActionSystem       = "system"
	ActionReady        = "ready"
	ActionStartBattle  = "start_battle"
	ActionAttack       = "attack"
	ActionMasterAttack = "master_attack"
	ActionDamage       = "damage"
	ActionEndBattle    = "end_battle"
)
