package websocket

import (
	"encoding/json"

	"github.com/knightsgate/chess-backend/internal/entity"
)

// request is the flat client message shape shared by both channels; each
// action reads the fields it needs.
type request struct {
	Action   string `json:"action"`
	Move     string `json:"move,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	InviteID string `json:"invite_id,omitempty"`
	Response string `json:"response,omitempty"`
}

type activeUserPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func activeUsersEvent(users []*entity.User) []byte {
	payload := make([]activeUserPayload, 0, len(users))
	for _, user := range users {
		payload = append(payload, activeUserPayload{ID: user.ID, Username: user.Username})
	}

	return mustMarshal(struct {
		Action      string              `json:"action"`
		ActiveUsers []activeUserPayload `json:"active_users"`
	}{Action: "active_users", ActiveUsers: payload})
}

func inviteSentEvent(message string) []byte {
	return mustMarshal(struct {
		Action  string `json:"action"`
		Message string `json:"message"`
	}{Action: "invite_sent", Message: message})
}

func receiveInviteEvent(inviteID, senderName string) []byte {
	return mustMarshal(struct {
		Action   string `json:"action"`
		InviteID string `json:"invite_id"`
		Sender   string `json:"sender"`
	}{Action: "receive_invite", InviteID: inviteID, Sender: senderName})
}

func startGameEvent(gameID string) []byte {
	return mustMarshal(struct {
		Action string `json:"action"`
		GameID string `json:"game_id"`
	}{Action: "start_game", GameID: gameID})
}

func inviteDeclinedEvent(receiverName string) []byte {
	return mustMarshal(struct {
		Action   string `json:"action"`
		Receiver string `json:"receiver"`
	}{Action: "invite_declined", Receiver: receiverName})
}

func lobbyGameStatusEvent(game *entity.Game) []byte {
	if game == nil {
		return mustMarshal(struct {
			Action string `json:"action"`
			Status string `json:"status"`
		}{Action: "game_status", Status: "inactive"})
	}

	return mustMarshal(struct {
		Action string `json:"action"`
		Status string `json:"status"`
		GameID string `json:"game_id"`
	}{Action: "game_status", Status: "active", GameID: game.ID})
}

// lobbyErrorEvent is the bare-error shape lobby clients expect.
func lobbyErrorEvent(message string) []byte {
	return mustMarshal(struct {
		Error string `json:"error"`
	}{Error: message})
}

func moveEvent(game *entity.Game) []byte {
	return mustMarshal(struct {
		Action              string `json:"action"`
		FEN                 string `json:"fen"`
		GameStatus          string `json:"game_status"`
		CurrentTurnUsername string `json:"current_turn_username"`
	}{Action: "move", FEN: game.FEN, GameStatus: game.Status, CurrentTurnUsername: game.CurrentTurnName()})
}

func gameStatusEvent(message string) []byte {
	return mustMarshal(struct {
		Action  string `json:"action"`
		Message string `json:"message"`
	}{Action: "game_status", Message: message})
}

func gameErrorEvent(message string) []byte {
	return mustMarshal(struct {
		Action  string `json:"action"`
		Message string `json:"message"`
	}{Action: "error", Message: message})
}

func mustMarshal(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
