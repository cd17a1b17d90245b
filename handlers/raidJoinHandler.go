package handlers

import (
	"net/http"

	"raidserver/models"
	"raidserver/raid"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RaidJoin はレイドルームへの参加を処理するハンドラです。
// 返すルーム情報は参加前の状態なので、最新の参加者一覧はスナップショットで取り直すこと
func RaidJoin(c *gin.Context, svc *raid.Service, logger *zap.Logger) {
	var request models.JoinRoomRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		logger.Error("Raid join request bind error", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストの形式が不正です"})
		return
	}

	result, err := svc.Join(c.Request.Context(), request.RoomCode, request.PlayerName, request.PokemonData)
	if err != nil {
		logger.Error("Failed to join raid room",
			zap.String("roomCode", request.RoomCode), zap.Error(err))
		respondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"room":        result.Room,
		"player":      result.Player,
		"playerToken": result.PlayerToken,
	})
}
