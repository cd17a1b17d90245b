package handlers

import (
	"errors"
	"net/http"

	"raidserver/raid"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// サービス層のエラーをHTTPステータスと短いメッセージに対応付ける。
// 拒否理由（「全員準備できていない」等）はそのまま画面に出せる文言で返す
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, raid.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "入力内容が不正です"})
	case errors.Is(err, raid.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "ルームまたはプレイヤーが見つかりません"})
	case errors.Is(err, raid.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "認証に失敗しました"})
	case errors.Is(err, raid.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "この操作を行う権限がありません"})
	case errors.Is(err, raid.ErrRoomFull):
		c.JSON(http.StatusBadRequest, gin.H{"error": "ルームが満員です"})
	case errors.Is(err, raid.ErrRoomNotWaiting):
		c.JSON(http.StatusBadRequest, gin.H{"error": "このルームには参加できません"})
	case errors.Is(err, raid.ErrNoTrainers):
		c.JSON(http.StatusBadRequest, gin.H{"error": "トレーナーがいません"})
	case errors.Is(err, raid.ErrTrainersNotReady):
		c.JSON(http.StatusBadRequest, gin.H{"error": "全員の準備が完了していません"})
	default:
		logger.Error("Unexpected service error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "サーバーエラーが発生しました"})
	}
}
