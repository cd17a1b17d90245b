package handlers

import (
	"net/http"

	"raidserver/models"
	"raidserver/raid"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RaidCreate はレイドルーム作成を処理するハンドラです。
// 発行されたplayerTokenはこのレスポンスでしか受け取れない
func RaidCreate(c *gin.Context, svc *raid.Service, logger *zap.Logger) {
	var request models.CreateRoomRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		logger.Error("Raid create request bind error", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストの形式が不正です"})
		return
	}

	result, err := svc.Create(c.Request.Context(), request.PlayerName, request.MasterPokemon)
	if err != nil {
		logger.Error("Failed to create raid room", zap.Error(err))
		respondError(c, logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"room":        result.Room,
		"player":      result.Player,
		"playerToken": result.PlayerToken,
	})
}
