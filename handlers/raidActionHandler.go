package handlers

import (
	"net/http"

	"raidserver/models"
	"raidserver/raid"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RaidAction はバトル中のアクション送信を処理するハンドラです。
// リトライすると手番が二重に進むので、クライアントは失敗時に自動再送してはいけない
func RaidAction(c *gin.Context, svc *raid.Service, logger *zap.Logger) {
	var request models.ActionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		logger.Error("Raid action request bind error", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストの形式が不正です"})
		return
	}

	result, err := svc.Act(c.Request.Context(),
		request.RoomID, request.PlayerID, request.PlayerToken,
		request.ActionType, request.ActionData)
	if err != nil {
		logger.Warn("Raid action rejected",
			zap.Uint("roomID", request.RoomID),
			zap.Uint("playerID", request.PlayerID),
			zap.String("actionType", request.ActionType),
			zap.Error(err))
		respondError(c, logger, err)
		return
	}

	// バトルログはここには含まれない。クライアントはスナップショットを取り直す
	c.JSON(http.StatusOK, gin.H{
		"room":    result.Room,
		"players": result.Players,
	})
}
