package utils

import (
	"encoding/json"
	"time"

	"raidserver/models"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CronCleaner は放置されたレイドルームを定期的に片付けます。
// セッション本体はルームを消さないので、掃除はここだけの仕事
func CronCleaner(db *gorm.DB, logger *zap.Logger) {
	c := cron.New()

	// 24時間動きのないwaitingルームをfinishedに更新するジョブ（毎日実行）
	c.AddFunc("@daily", func() {
		logger.Info("放置ルームを終了させる処理を開始")
		expiredRoomIDs := []uint{}
		db.Model(&models.RaidRoom{}).
			Where("status = ? AND updated_at <= ?", models.RoomStatusWaiting, time.Now().Add(-24*time.Hour)).
			Pluck("id", &expiredRoomIDs).
			Update("status", models.RoomStatusFinished)

		// 終了したことをバトルログにも残す
		for _, roomID := range expiredRoomIDs {
			payload, _ := json.Marshal(map[string]string{"message": "ルームの有効期限が切れました"})
			entry := models.BattleLogEntry{
				RoomID:     roomID,
				ActionType: models.ActionSystem,
				ActionData: payload,
			}
			if err := db.Create(&entry).Error; err != nil {
				logger.Error("期限切れログの記録に失敗しました", zap.Uint("roomID", roomID), zap.Error(err))
			}
		}
	})

	// 古いfinishedルームを削除するジョブ（"分 時 日 月 曜日"）
	c.AddFunc("0 3 * * *", func() {
		logger.Info("finished状態のルームを削除する処理を開始")
		oldRoomIDs := []uint{}
		db.Model(&models.RaidRoom{}).
			Where("status = ? AND updated_at <= ?", models.RoomStatusFinished, time.Now().Add(-48*time.Hour)).
			Pluck("id", &oldRoomIDs)

		if len(oldRoomIDs) == 0 {
			return
		}

		// プレイヤーとバトルログを先に削除してからルーム本体を消す
		db.Where("room_id IN ?", oldRoomIDs).Delete(&models.RaidPlayer{})
		db.Where("room_id IN ?", oldRoomIDs).Delete(&models.BattleLogEntry{})
		result := db.Where("id IN ?", oldRoomIDs).Delete(&models.RaidRoom{})
		if result.Error != nil {
			logger.Error("finished状態のルーム削除に失敗しました", zap.Error(result.Error))
		} else {
			logger.Info("finished状態のルーム削除完了", zap.Int("rooms_deleted", int(result.RowsAffected)))
		}
	})

	c.Start()
}
