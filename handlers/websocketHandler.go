package handlers

import (
	"net/http"
	"strconv"
	"time"

	ws "raidserver/internal/websocket"
	"raidserver/models"
	"raidserver/raid"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleRaidFeed はルームの変更通知フィードへのWebsocket接続を処理します。
// クライアントは {"type":"roomChanged"} を受け取るたびにスナップショットを取り直す
func HandleRaidFeed(c *gin.Context, hub *ws.Hub, svc *raid.Service, logger *zap.Logger) {
	roomIDUint, err := strconv.ParseUint(c.Param("roomID"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ルームIDが不正です"})
		return
	}
	roomID := uint(roomIDUint)

	// 存在しないルームの購読は受け付けない
	if _, err := svc.Snapshot(c.Request.Context(), roomID); err != nil {
		respondError(c, logger, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// WebSocket接続のアップグレードに失敗
		logger.Error("Error upgrading WebSocket", zap.Error(err))
		return
	}

	client := &models.Client{
		Conn:      conn,
		SessionID: uuid.New().String(),
		RoomID:    roomID,
	}
	hub.Register(client)

	// WebSocketのCloseHandlerを設定
	conn.SetCloseHandler(func(code int, text string) error {
		logger.Info("WebSocket closed", zap.Int("code", code), zap.String("reason", text))
		conn.Close() // 念のため、接続を閉じる
		hub.Unregister(client)
		return nil
	})

	// クライアントからの受信は読み捨てる（フィードは一方通行）
	go func() {
		defer func() {
			conn.Close()
			hub.Unregister(client)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.Error("WebSocket error", zap.Error(err))
				}
				break // エラーが発生したらループを抜ける
			}
		}
	}()

	// Ping/Pongを管理するゴルーチンを起動
	go func() {
		defer func() {
			conn.Close()
			hub.Unregister(client)
		}()

		// Pongハンドラの設定: Pongメッセージを受信したら読み取りデッドラインを更新
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})

		pingPeriod := 10 * time.Second // 10秒ごとにPingを送信
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for range ticker.C {
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Error("Error sending ping", zap.Error(err))
				return
			}
		}
	}()
}
