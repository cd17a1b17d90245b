package models

import (
	"github.com/gorilla/websocket"
)

// Websocket購読クライアントを定義
// レイドルーム単位で購読し、変更通知（roomChanged）を受け取るだけの存在
type Client struct {
	Conn      *websocket.Conn
	SessionID string // 購読ごとに発行されるUUID
	RoomID    uint
}
