package raid

import (
	"context"
	"errors"
	"fmt"

	"raidserver/models"

	"gorm.io/gorm"
)

// GormStore はPostgreSQL上のStore実装です。
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateRoom(ctx context.Context, room *models.RaidRoom) error {
	if err := s.db.WithContext(ctx).Create(room).Error; err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

func (s *GormStore) FindRoomByID(ctx context.Context, roomID uint) (*models.RaidRoom, error) {
	var room models.RaidRoom
	if err := s.db.WithContext(ctx).First(&room, roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find room: %w", err)
	}
	return &room, nil
}

func (s *GormStore) FindRoomByCode(ctx context.Context, roomCode string) (*models.RaidRoom, error) {
	var room models.RaidRoom
	if err := s.db.WithContext(ctx).Where("room_code = ?", roomCode).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find room by code: %w", err)
	}
	return &room, nil
}

func (s *GormStore) UpdateRoom(ctx context.Context, room *models.RaidRoom) error {
	if err := s.db.WithContext(ctx).Save(room).Error; err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	return nil
}

func (s *GormStore) CreatePlayer(ctx context.Context, player *models.RaidPlayer) error {
	if err := s.db.WithContext(ctx).Create(player).Error; err != nil {
		return fmt.Errorf("create player: %w", err)
	}
	return nil
}

func (s *GormStore) FindPlayerByID(ctx context.Context, playerID uint) (*models.RaidPlayer, error) {
	var player models.RaidPlayer
	if err := s.db.WithContext(ctx).First(&player, playerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find player: %w", err)
	}
	return &player, nil
}

func (s *GormStore) UpdatePlayer(ctx context.Context, player *models.RaidPlayer) error {
	if err := s.db.WithContext(ctx).Save(player).Error; err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	return nil
}

func (s *GormStore) ListPlayersByRoom(ctx context.Context, roomID uint) ([]models.RaidPlayer, error) {
	var players []models.RaidPlayer
	if err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("joined_at ASC").
		Find(&players).Error; err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return players, nil
}

func (s *GormStore) CountPlayersByRoom(ctx context.Context, roomID uint) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.RaidPlayer{}).
		Where("room_id = ?", roomID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count players: %w", err)
	}
	return count, nil
}

func (s *GormStore) AppendBattleLog(ctx context.Context, entry *models.BattleLogEntry) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("append battle log: %w", err)
	}
	return nil
}

func (s *GormStore) ListBattleLog(ctx context.Context, roomID uint) ([]models.BattleLogEntry, error) {
	var entries []models.BattleLogEntry
	if err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list battle log: %w", err)
	}
	return entries, nil
}
