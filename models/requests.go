package models

import "gorm.io/datatypes"

// CreateRoomRequest はレイドルーム作成リクエストのボディを表します。
type CreateRoomRequest struct {
	PlayerName    string         `json:"playerName"`
	MasterPokemon datatypes.JSON `json:"masterPokemon,omitempty"` // ボスポケモン。省略可
}

// JoinRoomRequest はレイドルーム参加リクエストのボディを表します。
// ルームコードは大文字小文字を区別せず照合します。
type JoinRoomRequest struct {
	RoomCode    string         `json:"roomCode"`
	PlayerName  string         `json:"playerName"`
	PokemonData datatypes.JSON `json:"pokemonData,omitempty"`
}

// ActionRequest はバトル中のアクション送信リクエストのボディを表します。
// PlayerTokenは作成・参加時に発行されたものをそのまま送る（それ以外の認証はない）
type ActionRequest struct {
	RoomID      uint           `json:"roomId"`
	PlayerID    uint           `json:"playerId"`
	PlayerToken string         `json:"playerToken"`
	ActionType  string         `json:"actionType"`
	ActionData  datatypes.JSON `json:"actionData,omitempty"`
}

// ActionData の中でサーバーが解釈するのはこのフィールドだけ。残りはそのままログに記録される
type DamageActionData struct {
	TargetPlayerID *uint `json:"targetPlayerId,omitempty"`
	DamageAmount   int   `json:"damageAmount"`
}
