package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RaidPlayer モデルの定義
// ルーム作成者がmaster、参加者がtrainer。1ルームにつきmaster1人＋trainer最大4人
type RaidPlayer struct {
	gorm.Model
	RoomID      uint           `gorm:"index;not null" json:"roomId"`
	PlayerName  string         `gorm:"not null" json:"playerName"`
	PlayerToken string         `gorm:"index;not null" json:"-"` // ベアラートークン。レスポンスには含めない
	Role        string         `gorm:"not null" json:"role"`    // "master" または "trainer"
	IsReady     bool           `gorm:"default:false" json:"isReady"`
	PokemonData datatypes.JSON `json:"pokemonData"` // 手持ちポケモンのデータ（中身はクライアント任せ）
	CurrentHP   int            `json:"currentHp"`
	MaxHP       int            `json:"maxHp"`
	JoinedAt    time.Time      `gorm:"not null" json:"joinedAt"` // trainerの手番順を決める唯一のキー
}

// プレイヤーのロール
const (
	RoleMaster  = "master"
	RoleTrainer = "trainer"
)

// ルームのステータス
const (
	RoomStatusWaiting  = "waiting"
	RoomStatusBattle   = "battle"
	RoomStatusFinished = "finished"
)

// 1ルームの最大人数（master1人＋trainer4人）
const MaxPlayersPerRoom = 5
