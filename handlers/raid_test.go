package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"raidserver/handlers"
	"raidserver/internal/testkit"
	"raidserver/models"
	"raidserver/raid"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	svc := raid.NewService(testkit.NewMemStore(), &testkit.FakeNotifier{}, logger)

	router := gin.New()
	router.POST("/raid/create", func(c *gin.Context) {
		handlers.RaidCreate(c, svc, logger)
	})
	router.POST("/raid/join", func(c *gin.Context) {
		handlers.RaidJoin(c, svc, logger)
	})
	router.POST("/raid/action", func(c *gin.Context) {
		handlers.RaidAction(c, svc, logger)
	})
	router.GET("/raid/rooms/:roomID", func(c *gin.Context) {
		handlers.RaidSnapshot(c, svc, logger)
	})
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	body := make(map[string]json.RawMessage)
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	return body
}

func createRoom(t *testing.T, router *gin.Engine, playerName string) (room models.RaidRoom, player models.RaidPlayer, token string) {
	t.Helper()
	recorder := doJSON(t, router, http.MethodPost, "/raid/create", models.CreateRoomRequest{PlayerName: playerName})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (%s)", recorder.Code, recorder.Body.String())
	}
	body := decodeBody(t, recorder)
	if err := json.Unmarshal(body["room"], &room); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(body["player"], &player); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(body["playerToken"], &token); err != nil {
		t.Fatal(err)
	}
	return room, player, token
}

func joinRoom(t *testing.T, router *gin.Engine, roomCode, playerName string) (player models.RaidPlayer, token string) {
	t.Helper()
	recorder := doJSON(t, router, http.MethodPost, "/raid/join", models.JoinRoomRequest{RoomCode: roomCode, PlayerName: playerName})
	if recorder.Code != http.StatusOK {
		t.Fatalf("join: expected 200, got %d (%s)", recorder.Code, recorder.Body.String())
	}
	body := decodeBody(t, recorder)
	if err := json.Unmarshal(body["player"], &player); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(body["playerToken"], &token); err != nil {
		t.Fatal(err)
	}
	return player, token
}

func TestCreateEndpoint(t *testing.T) {
	router := newTestRouter(t)
	room, player, token := createRoom(t, router, "Ana")
	if room.Status != models.RoomStatusWaiting {
		t.Fatalf("expected waiting, got %q", room.Status)
	}
	if player.Role != models.RoleMaster {
		t.Fatalf("expected master, got %q", player.Role)
	}
	if token == "" {
		t.Fatal("expected a token")
	}
}

func TestCreateEndpointRequiresName(t *testing.T) {
	router := newTestRouter(t)
	recorder := doJSON(t, router, http.MethodPost, "/raid/create", models.CreateRoomRequest{})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestJoinEndpointUnknownRoom(t *testing.T) {
	router := newTestRouter(t)
	recorder := doJSON(t, router, http.MethodPost, "/raid/join", models.JoinRoomRequest{RoomCode: "ZZZZZZ", PlayerName: "Beto"})
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
}

func TestActionEndpointStatusMapping(t *testing.T) {
	router := newTestRouter(t)
	room, master, masterToken := createRoom(t, router, "Ana")
	trainer, trainerToken := joinRoom(t, router, room.RoomCode, "Beto")

	// 盗まれたトークンは403
	recorder := doJSON(t, router, http.MethodPost, "/raid/action", models.ActionRequest{
		RoomID: room.ID, PlayerID: trainer.ID, PlayerToken: "stolen", ActionType: models.ActionAttack,
	})
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("bad token: expected 403, got %d", recorder.Code)
	}

	// trainerによるstart_battleは403
	recorder = doJSON(t, router, http.MethodPost, "/raid/action", models.ActionRequest{
		RoomID: room.ID, PlayerID: trainer.ID, PlayerToken: trainerToken, ActionType: models.ActionStartBattle,
	})
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("wrong role: expected 403, got %d", recorder.Code)
	}

	// 準備が揃っていないstart_battleは400（理由はそのまま返す）
	recorder = doJSON(t, router, http.MethodPost, "/raid/action", models.ActionRequest{
		RoomID: room.ID, PlayerID: master.ID, PlayerToken: masterToken, ActionType: models.ActionStartBattle,
	})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("not ready: expected 400, got %d", recorder.Code)
	}
	body := decodeBody(t, recorder)
	var message string
	if err := json.Unmarshal(body["error"], &message); err != nil || message == "" {
		t.Fatal("expected a human-readable rejection message")
	}

	// 存在しないルームは404
	recorder = doJSON(t, router, http.MethodPost, "/raid/action", models.ActionRequest{
		RoomID: 999, PlayerID: trainer.ID, PlayerToken: trainerToken, ActionType: models.ActionAttack,
	})
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("unknown room: expected 404, got %d", recorder.Code)
	}
}

func TestActionResponseOmitsBattleLog(t *testing.T) {
	router := newTestRouter(t)
	room, _, _ := createRoom(t, router, "Ana")
	trainer, trainerToken := joinRoom(t, router, room.RoomCode, "Beto")

	recorder := doJSON(t, router, http.MethodPost, "/raid/action", models.ActionRequest{
		RoomID: room.ID, PlayerID: trainer.ID, PlayerToken: trainerToken, ActionType: models.ActionReady,
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", recorder.Code, recorder.Body.String())
	}
	body := decodeBody(t, recorder)
	if _, ok := body["battleLog"]; ok {
		t.Fatal("action response must not include the battle log")
	}
	if _, ok := body["room"]; !ok {
		t.Fatal("action response must include the room")
	}
	if _, ok := body["players"]; !ok {
		t.Fatal("action response must include the players")
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	router := newTestRouter(t)
	room, _, _ := createRoom(t, router, "Ana")

	recorder := doJSON(t, router, http.MethodGet, fmt.Sprintf("/raid/rooms/%d", room.ID), nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	body := decodeBody(t, recorder)
	for _, key := range []string{"room", "players", "battleLog"} {
		if _, ok := body[key]; !ok {
			t.Fatalf("snapshot response missing %q", key)
		}
	}

	recorder = doJSON(t, router, http.MethodGet, "/raid/rooms/999", nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
}
