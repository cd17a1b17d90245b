package raid

import (
	"context"
	"encoding/json"
	"math/rand"
	"strings"
	"sync"
	"time"

	"raidserver/models"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Service はレイドセッションの中核です。
// ルーム作成・参加・アクション・スナップショットの4操作と手番管理のすべてを持つ
type Service struct {
	store    Store
	notifier Notifier
	logger   *zap.Logger

	randMu  sync.Mutex
	randGen *rand.Rand
	now     func() time.Time

	// 同一ルームのアクションを直列化するロック。
	// 「プレイヤー読み取り→手番決定→ルーム書き込み」の割り込みによる
	// 手番ポインタの上書き事故を防ぐ
	mu        sync.Mutex
	roomLocks map[uint]*sync.Mutex
}

func NewService(store Store, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		notifier:  notifier,
		logger:    logger,
		randGen:   createLocalRandGenerator(),
		now:       time.Now,
		roomLocks: make(map[uint]*sync.Mutex),
	}
}

// SessionResult はルーム作成・参加の結果です。
// PlayerTokenが返るのはこの2操作だけで、以後再取得はできない
type SessionResult struct {
	Room        *models.RaidRoom
	Player      *models.RaidPlayer
	PlayerToken string
}

// ActResult はアクション実行後の最新状態です。バトルログは含まない
// （ログはスナップショットで別途取得する）
type ActResult struct {
	Room    *models.RaidRoom
	Players []models.RaidPlayer
}

// SnapshotResult はルームの全体像です。
type SnapshotResult struct {
	Room      *models.RaidRoom
	Players   []models.RaidPlayer
	BattleLog []models.BattleLogEntry
}

func (s *Service) roomLock(roomID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.roomLocks[roomID]
	if !ok {
		lock = &sync.Mutex{}
		s.roomLocks[roomID] = lock
	}
	return lock
}

func (s *Service) newRoomCode() string {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	return generateRoomCode(s.randGen)
}

func (s *Service) newPlayerToken() string {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	return generatePlayerToken(s.randGen, s.now())
}

func (s *Service) notifyRoomChanged(ctx context.Context, roomID uint) {
	if s.notifier != nil {
		s.notifier.RoomChanged(ctx, roomID)
	}
}

// Create は新しいレイドルームとmasterプレイヤーを作成します。
func (s *Service) Create(ctx context.Context, playerName string, masterPokemon datatypes.JSON) (*SessionResult, error) {
	if strings.TrimSpace(playerName) == "" {
		return nil, ErrInvalidInput
	}

	room := &models.RaidRoom{
		RoomCode:      s.newRoomCode(),
		Status:        models.RoomStatusWaiting,
		MasterPokemon: masterPokemon,
	}
	if err := s.store.CreateRoom(ctx, room); err != nil {
		return nil, err
	}

	player := &models.RaidPlayer{
		RoomID:      room.ID,
		PlayerName:  playerName,
		PlayerToken: s.newPlayerToken(),
		Role:        models.RoleMaster,
		IsReady:     true, // 作成者は最初からready
		JoinedAt:    s.now(),
	}
	if err := s.store.CreatePlayer(ctx, player); err != nil {
		return nil, err
	}

	s.logger.Info("レイドルーム作成",
		zap.Uint("roomID", room.ID), zap.String("roomCode", room.RoomCode))
	s.notifyRoomChanged(ctx, room.ID)

	return &SessionResult{Room: room, Player: player, PlayerToken: player.PlayerToken}, nil
}

// Join は既存ルームにtrainerとして参加します。
// コードは大文字小文字を区別しない。返すルームは参加前のスナップショット
func (s *Service) Join(ctx context.Context, roomCode, playerName string, pokemonData datatypes.JSON) (*SessionResult, error) {
	if strings.TrimSpace(roomCode) == "" || strings.TrimSpace(playerName) == "" {
		return nil, ErrInvalidInput
	}

	room, err := s.store.FindRoomByCode(ctx, strings.ToUpper(roomCode))
	if err != nil {
		return nil, err
	}
	if room.Status != models.RoomStatusWaiting {
		return nil, ErrRoomNotWaiting
	}
	count, err := s.store.CountPlayersByRoom(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	if count >= models.MaxPlayersPerRoom {
		return nil, ErrRoomFull
	}

	maxHP := hpFromPokemon(pokemonData)
	player := &models.RaidPlayer{
		RoomID:      room.ID,
		PlayerName:  playerName,
		PlayerToken: s.newPlayerToken(),
		Role:        models.RoleTrainer,
		IsReady:     false,
		PokemonData: pokemonData,
		CurrentHP:   maxHP,
		MaxHP:       maxHP,
		JoinedAt:    s.now(),
	}
	if err := s.store.CreatePlayer(ctx, player); err != nil {
		return nil, err
	}

	s.logger.Info("レイドルーム参加",
		zap.Uint("roomID", room.ID), zap.Uint("playerID", player.ID))
	s.notifyRoomChanged(ctx, room.ID)

	return &SessionResult{Room: room, Player: player, PlayerToken: player.PlayerToken}, nil
}

// Act はバトル中のアクションを処理します。
// トークン照合が唯一の認証。未知のactionTypeは何もせず最新状態だけ返す
func (s *Service) Act(ctx context.Context, roomID, playerID uint, playerToken, actionType string, actionData datatypes.JSON) (*ActResult, error) {
	if roomID == 0 || playerID == 0 || playerToken == "" || actionType == "" {
		return nil, ErrInvalidInput
	}

	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	player, err := s.store.FindPlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if player.PlayerToken != playerToken {
		// トークン不一致の理由は漏らさない
		return nil, ErrUnauthorized
	}

	room, err := s.store.FindRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	changed := true
	switch actionType {
	case models.ActionReady:
		err = s.handleReady(ctx, player, actionData)
	case models.ActionStartBattle:
		err = s.handleStartBattle(ctx, room, player, actionData)
	case models.ActionAttack:
		err = s.handleAttack(ctx, room, player, actionData)
	case models.ActionMasterAttack:
		err = s.handleMasterAttack(ctx, room, player, actionData)
	case models.ActionDamage:
		err = s.handleDamage(ctx, room, player, actionData)
	case models.ActionEndBattle:
		err = s.handleEndBattle(ctx, room, player)
	default:
		// 未知のアクションは黙って受け流す（元仕様どおり）
		changed = false
	}
	if err != nil {
		return nil, err
	}

	if changed {
		s.notifyRoomChanged(ctx, roomID)
	}

	// 最新のルームとプレイヤー一覧を取り直して返す
	freshRoom, err := s.store.FindRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	players, err := s.store.ListPlayersByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return &ActResult{Room: freshRoom, Players: players}, nil
}

// Snapshot はルーム・プレイヤー一覧・バトルログの全体を返します。
func (s *Service) Snapshot(ctx context.Context, roomID uint) (*SnapshotResult, error) {
	room, err := s.store.FindRoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	players, err := s.store.ListPlayersByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	battleLog, err := s.store.ListBattleLog(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return &SnapshotResult{Room: room, Players: players, BattleLog: battleLog}, nil
}

func (s *Service) handleReady(ctx context.Context, player *models.RaidPlayer, actionData datatypes.JSON) error {
	player.IsReady = true
	if len(actionData) > 0 && string(actionData) != "null" {
		// 手持ちポケモンの差し替え。HPの初期値もここから拾い直す
		player.PokemonData = actionData
		if maxHP := hpFromPokemon(actionData); maxHP > 0 {
			player.MaxHP = maxHP
			if player.CurrentHP == 0 {
				player.CurrentHP = maxHP
			}
		}
	}
	return s.store.UpdatePlayer(ctx, player)
}

func (s *Service) handleStartBattle(ctx context.Context, room *models.RaidRoom, player *models.RaidPlayer, actionData datatypes.JSON) error {
	if player.Role != models.RoleMaster {
		return ErrForbidden
	}

	players, err := s.store.ListPlayersByRoom(ctx, room.ID)
	if err != nil {
		return err
	}
	trainers := filterTrainers(players)
	if len(trainers) == 0 {
		return ErrNoTrainers
	}
	for _, t := range trainers {
		if !t.IsReady {
			return ErrTrainersNotReady
		}
	}

	// 最初の手番は参加が一番早いtrainer
	first := trainers[0].ID
	room.Status = models.RoomStatusBattle
	room.CurrentTurnPlayerID = &first
	room.TurnNumber = 1
	if len(actionData) > 0 && string(actionData) != "null" {
		room.MasterPokemon = actionData
	}
	if err := s.store.UpdateRoom(ctx, room); err != nil {
		return err
	}

	return s.appendSystemLog(ctx, room, "バトルスタート！")
}

func (s *Service) handleAttack(ctx context.Context, room *models.RaidRoom, player *models.RaidPlayer, actionData datatypes.JSON) error {
	// ダメージ計算はクライアント任せ。ペイロードはそのまま記録する
	entry := &models.BattleLogEntry{
		RoomID:     room.ID,
		PlayerID:   &player.ID,
		PlayerName: player.PlayerName,
		TurnNumber: room.TurnNumber,
		ActionType: models.ActionAttack,
		ActionData: actionData,
	}
	if err := s.store.AppendBattleLog(ctx, entry); err != nil {
		return err
	}

	players, err := s.store.ListPlayersByRoom(ctx, room.ID)
	if err != nil {
		return err
	}
	trainers := filterTrainers(players)

	// 手番は参加順。最後のtrainerの次はmaster
	// TurnNumberはここでは増えない（masterの攻撃で1ラウンド完結）
	callerIndex := -1
	for i, t := range trainers {
		if t.ID == player.ID {
			callerIndex = i
			break
		}
	}
	if callerIndex >= 0 && callerIndex+1 < len(trainers) {
		next := trainers[callerIndex+1].ID
		room.CurrentTurnPlayerID = &next
	} else {
		if master := findMaster(players); master != nil {
			room.CurrentTurnPlayerID = &master.ID
		}
	}
	return s.store.UpdateRoom(ctx, room)
}

func (s *Service) handleMasterAttack(ctx context.Context, room *models.RaidRoom, player *models.RaidPlayer, actionData datatypes.JSON) error {
	if player.Role != models.RoleMaster {
		return ErrForbidden
	}

	entry := &models.BattleLogEntry{
		RoomID:     room.ID,
		PlayerID:   &player.ID,
		PlayerName: player.PlayerName,
		TurnNumber: room.TurnNumber,
		ActionType: models.ActionMasterAttack,
		ActionData: actionData,
	}
	if err := s.store.AppendBattleLog(ctx, entry); err != nil {
		return err
	}

	players, err := s.store.ListPlayersByRoom(ctx, room.ID)
	if err != nil {
		return err
	}
	trainers := filterTrainers(players)

	// masterの攻撃で1ラウンド完結。手番を先頭のtrainerに戻してラウンド番号を進める
	if len(trainers) > 0 {
		first := trainers[0].ID
		room.CurrentTurnPlayerID = &first
	}
	room.TurnNumber++
	return s.store.UpdateRoom(ctx, room)
}

func (s *Service) handleDamage(ctx context.Context, room *models.RaidRoom, player *models.RaidPlayer, actionData datatypes.JSON) error {
	var data models.DamageActionData
	if len(actionData) > 0 {
		if err := json.Unmarshal(actionData, &data); err != nil {
			return ErrInvalidInput
		}
	}

	// targetPlayerIdがあればそのプレイヤーに、なければ自分に適用する。
	// ただし減算の基準は常に「送信者自身の」現在HP（元実装の挙動をそのまま残している）
	target := player
	if data.TargetPlayerID != nil && *data.TargetPlayerID != player.ID {
		other, err := s.store.FindPlayerByID(ctx, *data.TargetPlayerID)
		if err != nil {
			return err
		}
		target = other
	}
	newHP := player.CurrentHP - data.DamageAmount
	if newHP < 0 {
		newHP = 0
	}
	target.CurrentHP = newHP
	if err := s.store.UpdatePlayer(ctx, target); err != nil {
		return err
	}

	entry := &models.BattleLogEntry{
		RoomID:     room.ID,
		PlayerID:   &player.ID,
		PlayerName: player.PlayerName,
		TurnNumber: room.TurnNumber,
		ActionType: models.ActionDamage,
		ActionData: actionData,
	}
	return s.store.AppendBattleLog(ctx, entry)
}

func (s *Service) handleEndBattle(ctx context.Context, room *models.RaidRoom, player *models.RaidPlayer) error {
	if player.Role != models.RoleMaster {
		return ErrForbidden
	}

	room.Status = models.RoomStatusFinished
	if err := s.store.UpdateRoom(ctx, room); err != nil {
		return err
	}
	return s.appendSystemLog(ctx, room, "バトル終了")
}

func (s *Service) appendSystemLog(ctx context.Context, room *models.RaidRoom, message string) error {
	payload, _ := json.Marshal(map[string]string{"message": message})
	entry := &models.BattleLogEntry{
		RoomID:     room.ID,
		PlayerID:   nil, // システムメッセージ
		TurnNumber: room.TurnNumber,
		ActionType: models.ActionSystem,
		ActionData: payload,
	}
	return s.store.AppendBattleLog(ctx, entry)
}

func filterTrainers(players []models.RaidPlayer) []models.RaidPlayer {
	trainers := make([]models.RaidPlayer, 0, len(players))
	for _, p := range players {
		if p.Role == models.RoleTrainer {
			trainers = append(trainers, p)
		}
	}
	return trainers
}

func findMaster(players []models.RaidPlayer) *models.RaidPlayer {
	for i := range players {
		if players[i].Role == models.RoleMaster {
			return &players[i]
		}
	}
	return nil
}

// hpFromPokemon はポケモンペイロードからHP初期値を拾います。
// ペイロード自体は不透明だがHPカウンタの初期化にmaxHpだけ覗く
func hpFromPokemon(data datatypes.JSON) int {
	if len(data) == 0 {
		return 0
	}
	var probe struct {
		MaxHP int `json:"maxHp"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0
	}
	return probe.MaxHP
}
