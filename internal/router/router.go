// Package router implements name-scoped multicast over live connections:
// one group per game, one per user, and a global lobby group.
package router

import (
	"log/slog"
	"sync"
)

// LobbyGroup receives lobby-wide presence traffic.
const LobbyGroup = "lobby"

func GameGroup(gameID string) string { return "game_" + gameID }

func UserGroup(userID string) string { return "user_" + userID }

// Conn is a live connection that can accept outbound messages. Enqueue
// must not block; it reports false when the message was dropped because
// the connection is gone or its buffer is full.
type Conn interface {
	UserID() string
	Enqueue(message []byte) bool
}

// Router tracks group membership and fans messages out to members.
// A connection may belong to any number of groups; membership is
// ephemeral and rebuilt on reconnect.
type Router struct {
	logger *slog.Logger

	mu     sync.RWMutex
	groups map[string]map[Conn]struct{}
}

func New(logger *slog.Logger) *Router {
	return &Router{
		logger: logger.With("component", "router"),
		groups: make(map[string]map[Conn]struct{}),
	}
}

func (that *Router) Join(group string, conn Conn) {
	that.mu.Lock()
	defer that.mu.Unlock()

	members, ok := that.groups[group]
	if !ok {
		members = make(map[Conn]struct{})
		that.groups[group] = members
	}

	members[conn] = struct{}{}
}

func (that *Router) Leave(group string, conn Conn) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.removeLocked(group, conn)
}

// LeaveAll removes the connection from every group it joined, for
// disconnect cleanup.
func (that *Router) LeaveAll(conn Conn) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for group := range that.groups {
		that.removeLocked(group, conn)
	}
}

// Send delivers the message to a snapshot of the group's membership taken
// at call time and returns how many connections accepted it. Dropped
// deliveries are logged, never surfaced: a member that departed mid-send
// is not an error.
func (that *Router) Send(group string, message []byte) int {
	delivered := 0
	for _, conn := range that.Connections(group) {
		if conn.Enqueue(message) {
			delivered++
			continue
		}

		that.logger.Debug("dropped message to departed connection", "group", group, "user_id", conn.UserID())
	}

	return delivered
}

// Connections returns a snapshot of the group's current members.
func (that *Router) Connections(group string) []Conn {
	that.mu.RLock()
	defer that.mu.RUnlock()

	members := that.groups[group]
	conns := make([]Conn, 0, len(members))
	for conn := range members {
		conns = append(conns, conn)
	}

	return conns
}

func (that *Router) removeLocked(group string, conn Conn) {
	members, ok := that.groups[group]
	if !ok {
		return
	}

	delete(members, conn)
	if len(members) == 0 {
		delete(that.groups, group)
	}
}
