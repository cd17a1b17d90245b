package testkit

import (
	"context"
	"sort"
	"sync"

	"raidserver/models"
	"raidserver/raid"
)

// MemStore はテスト用のインメモリStore実装です。
// GormStoreと同じ契約（JoinedAt昇順、作成順のログ、ErrNotFound）を守る
type MemStore struct {
	mu      sync.Mutex
	nextID  uint
	Rooms   map[uint]models.RaidRoom
	Players map[uint]models.RaidPlayer
	Log     []models.BattleLogEntry

	// 指定したメソッド名のエラーを強制する（ストア障害の再現用）
	FailOn map[string]error
}

func NewMemStore() *MemStore {
	return &MemStore{
		nextID:  1,
		Rooms:   make(map[uint]models.RaidRoom),
		Players: make(map[uint]models.RaidPlayer),
		FailOn:  make(map[string]error),
	}
}

func (m *MemStore) fail(op string) error {
	if err, ok := m.FailOn[op]; ok {
		return err
	}
	return nil
}

func (m *MemStore) CreateRoom(ctx context.Context, room *models.RaidRoom) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateRoom"); err != nil {
		return err
	}
	room.ID = m.nextID
	m.nextID++
	m.Rooms[room.ID] = *room
	return nil
}

func (m *MemStore) FindRoomByID(ctx context.Context, roomID uint) (*models.RaidRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("FindRoomByID"); err != nil {
		return nil, err
	}
	room, ok := m.Rooms[roomID]
	if !ok {
		return nil, raid.ErrNotFound
	}
	copied := room
	return &copied, nil
}

func (m *MemStore) FindRoomByCode(ctx context.Context, roomCode string) (*models.RaidRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("FindRoomByCode"); err != nil {
		return nil, err
	}
	for _, room := range m.Rooms {
		if room.RoomCode == roomCode {
			copied := room
			return &copied, nil
		}
	}
	return nil, raid.ErrNotFound
}

func (m *MemStore) UpdateRoom(ctx context.Context, room *models.RaidRoom) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateRoom"); err != nil {
		return err
	}
	m.Rooms[room.ID] = *room
	return nil
}

func (m *MemStore) CreatePlayer(ctx context.Context, player *models.RaidPlayer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreatePlayer"); err != nil {
		return err
	}
	player.ID = m.nextID
	m.nextID++
	m.Players[player.ID] = *player
	return nil
}

func (m *MemStore) FindPlayerByID(ctx context.Context, playerID uint) (*models.RaidPlayer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("FindPlayerByID"); err != nil {
		return nil, err
	}
	player, ok := m.Players[playerID]
	if !ok {
		return nil, raid.ErrNotFound
	}
	copied := player
	return &copied, nil
}

func (m *MemStore) UpdatePlayer(ctx context.Context, player *models.RaidPlayer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdatePlayer"); err != nil {
		return err
	}
	m.Players[player.ID] = *player
	return nil
}

func (m *MemStore) ListPlayersByRoom(ctx context.Context, roomID uint) ([]models.RaidPlayer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListPlayersByRoom"); err != nil {
		return nil, err
	}
	var players []models.RaidPlayer
	for _, player := range m.Players {
		if player.RoomID == roomID {
			players = append(players, player)
		}
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].JoinedAt.Equal(players[j].JoinedAt) {
			return players[i].ID < players[j].ID
		}
		return players[i].JoinedAt.Before(players[j].JoinedAt)
	})
	return players, nil
}

func (m *MemStore) CountPlayersByRoom(ctx context.Context, roomID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CountPlayersByRoom"); err != nil {
		return 0, err
	}
	var count int64
	for _, player := range m.Players {
		if player.RoomID == roomID {
			count++
		}
	}
	return count, nil
}

func (m *MemStore) AppendBattleLog(ctx context.Context, entry *models.BattleLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("AppendBattleLog"); err != nil {
		return err
	}
	entry.ID = m.nextID
	m.nextID++
	m.Log = append(m.Log, *entry)
	return nil
}

func (m *MemStore) ListBattleLog(ctx context.Context, roomID uint) ([]models.BattleLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListBattleLog"); err != nil {
		return nil, err
	}
	var entries []models.BattleLogEntry
	for _, entry := range m.Log {
		if entry.RoomID == roomID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// FakeNotifier は発行された通知を記録するだけのNotifierです。
type FakeNotifier struct {
	mu      sync.Mutex
	Changed []uint
}

func (n *FakeNotifier) RoomChanged(ctx context.Context, roomID uint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Changed = append(n.Changed, roomID)
}

// ChangedCount は通知の回数を返します。
func (n *FakeNotifier) ChangedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Changed)
}
