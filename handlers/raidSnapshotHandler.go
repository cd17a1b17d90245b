package handlers

import (
	"net/http"
	"strconv"

	"raidserver/raid"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RaidSnapshot はルームの全体像（ルーム・プレイヤー・バトルログ）を返すハンドラです。
func RaidSnapshot(c *gin.Context, svc *raid.Service, logger *zap.Logger) {
	roomID, err := strconv.ParseUint(c.Param("roomID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ルームIDが不正です"})
		return
	}

	result, err := svc.Snapshot(c.Request.Context(), uint(roomID))
	if err != nil {
		logger.Error("Failed to fetch raid snapshot",
			zap.Uint64("roomID", roomID), zap.Error(err))
		respondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"room":      result.Room,
		"players":   result.Players,
		"battleLog": result.BattleLog,
	})
}
