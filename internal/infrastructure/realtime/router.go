package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// SkipFunc reports whether a recipient should not receive a broadcast.
type SkipFunc func(userID uuid.UUID) bool

// Router tracks one active session per user and the thread rooms each
// session joined.
type Router struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Connection               // sessionID -> session
	current  map[uuid.UUID]uuid.UUID                 // userID -> sessionID
	rooms    map[uuid.UUID]map[uuid.UUID]*Connection // threadID -> sessionID -> session
}

func NewRouter() *Router {
	return &Router{
		sessions: make(map[uuid.UUID]*Connection),
		current:  make(map[uuid.UUID]uuid.UUID),
		rooms:    make(map[uuid.UUID]map[uuid.UUID]*Connection),
	}
}

// Attach registers conn as its user's session and starts its writer. A session
// it replaces is closed with code 4001 after the swap.
func (r *Router) Attach(conn *Connection) {
	var previous *Connection

	r.mu.Lock()
	if existingID, ok := r.current[conn.UserID]; ok {
		previous = r.sessions[existingID]
		r.detachLocked(existingID)
	}
	r.sessions[conn.SessionID] = conn
	r.current[conn.UserID] = conn.SessionID
	r.mu.Unlock()

	conn.Start()

	if previous != nil {
		previous.Close(4001, "session replaced")
	}
}

// Detach drops conn and its room memberships if it is still tracked.
func (r *Router) Detach(conn *Connection) {
	r.mu.Lock()
	r.detachLocked(conn.SessionID)
	r.mu.Unlock()
}

// Join adds an attached session to the thread's room.
func (r *Router) Join(threadID uuid.UUID, conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[conn.SessionID] != conn {
		return
	}
	room := r.rooms[threadID]
	if room == nil {
		room = make(map[uuid.UUID]*Connection)
		r.rooms[threadID] = room
	}
	room[conn.SessionID] = conn
	conn.threads[threadID] = struct{}{}
}

// Threads lists the rooms conn is in.
func (r *Router) Threads(conn *Connection) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]uuid.UUID, 0, len(conn.threads))
	for id := range conn.threads {
		out = append(out, id)
	}
	return out
}

// Leave removes the connection from the thread's room.
func (r *Router) Leave(threadID uuid.UUID, conn *Connection) {
	r.mu.Lock()
	r.leaveLocked(threadID, conn)
	r.mu.Unlock()
}

// Broadcast writes payload to every member of the room for which skip
// returns false, and reports how many sends were queued.
func (r *Router) Broadcast(threadID uuid.UUID, payload []byte, skip SkipFunc) int {
	r.mu.RLock()
	room := r.rooms[threadID]
	targets := make([]*Connection, 0, len(room))
	for _, conn := range room {
		targets = append(targets, conn)
	}
	r.mu.RUnlock()

	// skip may consult other state; call it without holding the lock.
	delivered := 0
	for _, conn := range targets {
		if skip != nil && skip(conn.UserID) {
			continue
		}
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

// NotifyUser delivers payload to the current connection of the given user.
func (r *Router) NotifyUser(userID uuid.UUID, payload []byte) bool {
	r.mu.RLock()
	sessionID, ok := r.current[userID]
	if !ok {
		r.mu.RUnlock()
		return false
	}
	conn := r.sessions[sessionID]
	r.mu.RUnlock()
	if conn == nil {
		return false
	}
	return conn.Send(payload) == nil
}

// Members returns the users currently in the thread's room.
func (r *Router) Members(threadID uuid.UUID) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]uuid.UUID, 0, len(r.rooms[threadID]))
	for _, conn := range r.rooms[threadID] {
		out = append(out, conn.UserID)
	}
	return out
}

// Close terminates all tracked connections and clears router state.
func (r *Router) Close() {
	r.mu.Lock()
	sessions := make([]*Connection, 0, len(r.sessions))
	for _, conn := range r.sessions {
		sessions = append(sessions, conn)
	}
	r.sessions = make(map[uuid.UUID]*Connection)
	r.current = make(map[uuid.UUID]uuid.UUID)
	r.rooms = make(map[uuid.UUID]map[uuid.UUID]*Connection)
	r.mu.Unlock()

	for _, conn := range sessions {
		conn.Close(1001, "router shutdown")
	}
}

func (r *Router) detachLocked(sessionID uuid.UUID) {
	conn, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	delete(r.sessions, sessionID)
	if r.current[conn.UserID] == sessionID {
		delete(r.current, conn.UserID)
	}
	for threadID := range conn.threads {
		r.leaveLocked(threadID, conn)
	}
}

func (r *Router) leaveLocked(threadID uuid.UUID, conn *Connection) {
	delete(conn.threads, threadID)
	room := r.rooms[threadID]
	if room == nil {
		return
	}
	delete(room, conn.SessionID)
	if len(room) == 0 {
		delete(r.rooms, threadID)
	}
}
