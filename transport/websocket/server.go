package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/knightsgate/chess-backend/internal/entity"
	"github.com/knightsgate/chess-backend/internal/router"
)

const sessionCookieName = "user_session"

type lobbyUsecase interface {
	ActiveUsers(ctx context.Context, requesterID string) ([]*entity.User, error)
	SendInvite(ctx context.Context, sender *entity.User, receiverID string) (*entity.Invite, error)
	AcceptInvite(ctx context.Context, responderID, inviteID string) (*entity.Invite, *entity.Game, error)
	DeclineInvite(ctx context.Context, responderID, inviteID string) (*entity.Invite, error)
	ActiveGameFor(ctx context.Context, userID string) (*entity.Game, error)
}

type gameUsecase interface {
	Move(ctx context.Context, gameID, userID, move string) (*entity.Game, error)
	Exit(ctx context.Context, gameID, userID string) (*entity.Game, error)
}

type authenticator interface {
	UserBySession(ctx context.Context, sessionID string) (*entity.User, error)
}

// Server serves the two websocket channels: the lobby at /ws/lobby and
// per-game connections at /ws/game/{game_id}. Each connection runs as one
// reader goroutine plus one write pump; fan-out goes through the group
// router.
type Server struct {
	logger *slog.Logger
	groups *router.Router
	lobby  lobbyUsecase
	games  gameUsecase
	auth   authenticator

	upgrader websocket.Upgrader

	lobbyHandlers map[string]func(ctx context.Context, client *Client, req *request) error
	gameHandlers  map[string]func(ctx context.Context, client *Client, gameID string, req *request) error
}

func New(logger *slog.Logger, groups *router.Router, lobby lobbyUsecase, games gameUsecase, auth authenticator) *Server {
	server := &Server{
		logger: logger,
		groups: groups,
		lobby:  lobby,
		games:  games,
		auth:   auth,

		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},

		lobbyHandlers: make(map[string]func(context.Context, *Client, *request) error),
		gameHandlers:  make(map[string]func(context.Context, *Client, string, *request) error),
	}

	server.lobbyHandlers["fetch_active_users"] = server.handleFetchActiveUsers
	server.lobbyHandlers["send_invite"] = server.handleSendInvite
	server.lobbyHandlers["respond_invite"] = server.handleRespondInvite
	server.lobbyHandlers["check_game_status"] = server.handleCheckGameStatus

	server.gameHandlers["move"] = server.handleMove
	server.gameHandlers["exit"] = server.handleExit

	return server
}

// Start - starts the WebSocket server and shuts it down when ctx ends.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     that.mux(ctx),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) mux(ctx context.Context) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/lobby", func(w http.ResponseWriter, r *http.Request) {
		that.serveLobby(ctx, w, r)
	})
	mux.HandleFunc("/ws/game/{game_id}", func(w http.ResponseWriter, r *http.Request) {
		that.serveGame(ctx, w, r)
	})

	return mux
}

// serveLobby requires an authenticated user before the handshake. The
// connection joins the lobby group and the user's private group, and
// every presence change re-sends each member its own active-user list.
func (that *Server) serveLobby(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveLobby")

	user, err := that.authenticate(r)
	if err != nil {
		log.Info("rejected unauthenticated lobby connection", "error", err)
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	client := newClient(conn, user, log.With("userID", user.ID))
	go client.writePump()

	that.groups.Join(router.LobbyGroup, client)
	that.groups.Join(router.UserGroup(user.ID), client)
	log.Info("lobby connection established", "userID", user.ID)

	that.broadcastActiveUsers(ctx)

	defer func() {
		that.groups.LeaveAll(client)
		client.close()
		that.broadcastActiveUsers(ctx)
		log.Info("lobby connection closed", "userID", user.ID)
	}()

	that.readLoop(ctx, client, func(reqCtx context.Context, req *request) error {
		handler, ok := that.lobbyHandlers[req.Action]
		if !ok {
			client.Enqueue(lobbyErrorEvent("Invalid action"))
			return nil
		}

		return handler(reqCtx, client, req)
	})
}

// serveGame accepts the connection whether or not the user is
// authenticated; actions authorize per message. The connection joins the
// game's broadcast group and no game state is read until a move arrives.
func (that *Server) serveGame(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("game_id")
	log := that.logger.With("method", "serveGame", "gameID", gameID)

	user, err := that.authenticate(r)
	if err != nil {
		user = nil
	}

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	client := newClient(conn, user, log)
	go client.writePump()

	that.groups.Join(router.GameGroup(gameID), client)
	log.Info("game connection established", "userID", client.UserID())

	defer func() {
		that.groups.LeaveAll(client)
		client.close()
		log.Info("game connection closed", "userID", client.UserID())
	}()

	that.readLoop(ctx, client, func(reqCtx context.Context, req *request) error {
		handler, ok := that.gameHandlers[req.Action]
		if !ok {
			log.Warn("unknown action received", "action", req.Action)
			return nil
		}

		return handler(reqCtx, client, gameID, req)
	})
}

// readLoop - processes messages from the client, in order, until the
// connection drops or the server context ends. A handler error is logged
// and never tears down the connection.
func (that *Server) readLoop(ctx context.Context, client *Client, dispatch func(ctx context.Context, req *request) error) {
	log := that.logger.With("method", "readLoop")

	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("connection closed unexpectedly", "error", err)
			}
			return
		}

		var req request
		if err = json.Unmarshal(data, &req); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		if err = dispatch(ctx, &req); err != nil {
			log.Error("error processing message", "action", req.Action, "error", err)
		}
	}
}

func (that *Server) authenticate(r *http.Request) (*entity.User, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil, fmt.Errorf("missing session cookie: %w", err)
	}

	return that.auth.UserBySession(r.Context(), cookie.Value)
}

// broadcastActiveUsers pushes a freshly computed, per-recipient filtered
// active-user list to every lobby member. Recomputing per recipient keeps
// exclusion sets from going stale.
func (that *Server) broadcastActiveUsers(ctx context.Context) {
	log := that.logger.With("method", "broadcastActiveUsers")

	for _, conn := range that.groups.Connections(router.LobbyGroup) {
		users, err := that.lobby.ActiveUsers(ctx, conn.UserID())
		if err != nil {
			log.Error("failed to compute active users", "userID", conn.UserID(), "error", err)
			continue
		}

		conn.Enqueue(activeUsersEvent(users))
	}
}
