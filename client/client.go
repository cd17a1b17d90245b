package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"raidserver/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// 画面の種類。ルームのステータスから機械的に決まる
const (
	ScreenLobby    = "lobby"
	ScreenBattle   = "battle"
	ScreenFinished = "finished"
)

// RaidClient はレイドのクライアントコントローラです。
// サーバー状態の鏡でしかなく、手番のロジックは一切持たない。
// 変更通知を受けるたび、またアクション送信のたびにスナップショットを取り直す
type RaidClient struct {
	BaseURL    string
	HTTPClient *http.Client
	logger     *zap.Logger

	mu        sync.Mutex
	room      *models.RaidRoom
	players   []models.RaidPlayer
	battleLog []models.BattleLogEntry
	playerID  uint
	token     string
	lastError string
}

func NewRaidClient(baseURL string, logger *zap.Logger) *RaidClient {
	return &RaidClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: http.DefaultClient,
		logger:     logger,
	}
}

type sessionResponse struct {
	Room        *models.RaidRoom   `json:"room"`
	Player      *models.RaidPlayer `json:"player"`
	PlayerToken string             `json:"playerToken"`
}

type actionResponse struct {
	Room    *models.RaidRoom    `json:"room"`
	Players []models.RaidPlayer `json:"players"`
}

type snapshotResponse struct {
	Room      *models.RaidRoom        `json:"room"`
	Players   []models.RaidPlayer     `json:"players"`
	BattleLog []models.BattleLogEntry `json:"battleLog"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// CreateRoom はルームを作成し、自分をmasterとして登録します。
func (rc *RaidClient) CreateRoom(playerName string, masterPokemon datatypes.JSON) error {
	var result sessionResponse
	err := rc.post("/raid/create", models.CreateRoomRequest{
		PlayerName:    playerName,
		MasterPokemon: masterPokemon,
	}, &result)
	if err != nil {
		return err
	}

	rc.mu.Lock()
	rc.room = result.Room
	rc.players = nil
	rc.battleLog = nil
	rc.playerID = result.Player.ID
	rc.token = result.PlayerToken // トークンはここでしか手に入らない
	rc.lastError = ""
	rc.mu.Unlock()
	return rc.Refresh()
}

// JoinRoom はコードでルームに参加し、自分をtrainerとして登録します。
func (rc *RaidClient) JoinRoom(roomCode, playerName string, pokemonData datatypes.JSON) error {
	var result sessionResponse
	err := rc.post("/raid/join", models.JoinRoomRequest{
		RoomCode:    roomCode,
		PlayerName:  playerName,
		PokemonData: pokemonData,
	}, &result)
	if err != nil {
		return err
	}

	rc.mu.Lock()
	rc.room = result.Room
	rc.playerID = result.Player.ID
	rc.token = result.PlayerToken
	rc.lastError = ""
	rc.mu.Unlock()
	// 参加直後のルーム情報は参加前のものなので取り直す
	return rc.Refresh()
}

// SubmitAction はアクションを送信します。
// アクションのレスポンスにはバトルログが無いので、成功したらスナップショットも取り直す
func (rc *RaidClient) SubmitAction(actionType string, actionData datatypes.JSON) error {
	rc.mu.Lock()
	if rc.room == nil {
		rc.mu.Unlock()
		return fmt.Errorf("ルームに参加していません")
	}
	request := models.ActionRequest{
		RoomID:      rc.room.ID,
		PlayerID:    rc.playerID,
		PlayerToken: rc.token,
		ActionType:  actionType,
		ActionData:  actionData,
	}
	rc.mu.Unlock()

	var result actionResponse
	if err := rc.post("/raid/action", request, &result); err != nil {
		return err
	}

	rc.mu.Lock()
	rc.room = result.Room
	rc.players = result.Players
	rc.lastError = ""
	rc.mu.Unlock()
	return rc.Refresh()
}

// Refresh はスナップショットを取り直してローカル状態を上書きします。
func (rc *RaidClient) Refresh() error {
	rc.mu.Lock()
	if rc.room == nil {
		rc.mu.Unlock()
		return fmt.Errorf("ルームに参加していません")
	}
	roomID := rc.room.ID
	rc.mu.Unlock()

	resp, err := rc.HTTPClient.Get(fmt.Sprintf("%s/raid/rooms/%d", rc.BaseURL, roomID))
	if err != nil {
		rc.recordError(err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		message := readErrorMessage(resp.Body)
		rc.recordError(message)
		return fmt.Errorf("snapshot failed: %s", message)
	}

	var result snapshotResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		rc.recordError(err.Error())
		return err
	}

	rc.mu.Lock()
	rc.room = result.Room
	rc.players = result.Players
	rc.battleLog = result.BattleLog
	rc.lastError = ""
	rc.mu.Unlock()
	return nil
}

// Subscribe はWebsocketフィードに接続し、通知のたびにスナップショットを取り直します。
// 取り直しの失敗は握りつぶして次の通知に任せる（古い表示のほうがクラッシュよりまし）
func (rc *RaidClient) Subscribe() error {
	rc.mu.Lock()
	if rc.room == nil {
		rc.mu.Unlock()
		return fmt.Errorf("ルームに参加していません")
	}
	roomID := rc.room.ID
	rc.mu.Unlock()

	wsURL, err := websocketURL(rc.BaseURL, roomID)
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("フィードへの接続に失敗しました: %w", err)
	}

	go func() {
		defer conn.Close()
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				rc.logger.Info("Feed closed", zap.Error(err))
				return
			}
			// 通知の中身は見ない。「変わった」という信号としてだけ扱う
			if err := rc.Refresh(); err != nil {
				rc.logger.Warn("Snapshot refresh failed", zap.Error(err))
			}
		}
	}()
	return nil
}

// Screen はルームのステータスに対応する画面を返します。
func (rc *RaidClient) Screen() string {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.room == nil {
		return ScreenLobby
	}
	switch rc.room.Status {
	case models.RoomStatusBattle:
		return ScreenBattle
	case models.RoomStatusFinished:
		return ScreenFinished
	default:
		return ScreenLobby
	}
}

// Room は最新のルーム情報を返します。
func (rc *RaidClient) Room() *models.RaidRoom {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.room
}

// Players は最新のプレイヤー一覧（参加順）を返します。
func (rc *RaidClient) Players() []models.RaidPlayer {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.players
}

// BattleLog は最新のバトルログ（時系列順）を返します。
func (rc *RaidClient) BattleLog() []models.BattleLogEntry {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.battleLog
}

// PlayerID は自分のプレイヤーIDを返します。
func (rc *RaidClient) PlayerID() uint {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.playerID
}

// LastError は直近の失敗メッセージを返します。画面にそのまま出せる文言
func (rc *RaidClient) LastError() string {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.lastError
}

func (rc *RaidClient) post(path string, request interface{}, result interface{}) error {
	body, err := json.Marshal(request)
	if err != nil {
		return err
	}
	resp, err := rc.HTTPClient.Post(rc.BaseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		rc.recordError(err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		// 拒否理由はそのまま画面に出す。状態は前のまま
		message := readErrorMessage(resp.Body)
		rc.recordError(message)
		return fmt.Errorf("request rejected: %s", message)
	}
	return json.NewDecoder(resp.Body).Decode(result)
}

func (rc *RaidClient) recordError(message string) {
	rc.mu.Lock()
	rc.lastError = message
	rc.mu.Unlock()
}

func readErrorMessage(body io.Reader) string {
	var response errorResponse
	if err := json.NewDecoder(body).Decode(&response); err != nil || response.Error == "" {
		return "通信に失敗しました"
	}
	return response.Error
}

func websocketURL(baseURL string, roomID uint) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("error parsing base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = fmt.Sprintf("/ws/%d", roomID)
	return u.String(), nil
}
