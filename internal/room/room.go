// Package room tracks which observer sessions are watching which game
// session.
package room

import (
	"sort"
	"sync"
)

// Room represents a room.
type Room struct {
	ID      string
	Owner   string
	Scene   string
	Members map[string]struct{}
}

// Info is a read-only snapshot of a room.
type Info struct {
	ID      string   `json:"id"`
	Owner   string   `json:"owner"`
	Scene   string   `json:"scene"`
	Members []string `json:"members"`
}

// Manager represents a manager.
type Manager struct {
	mu           sync.Mutex
	sessionRooms map[string]string
	rooms        map[string]*Room
}

// NewManager executes the newManager function.
func NewManager() *Manager {
	return &Manager{
		sessionRooms: make(map[string]string),
		rooms:        make(map[string]*Room),
	}
}

// RegisterSession executes the registerSession method.
func (m *Manager) RegisterSession(uid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessionRooms[uid]; !ok {
		m.sessionRooms[uid] = ""
	}
}

// OpenRoom creates the room a tablet session owns. Observers join it by
// the returned id.
func (m *Manager) OpenRoom(owner string, scene string) (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessionRooms[owner]; !ok {
		return false, "Owner does not exist"
	}
	if m.sessionRooms[owner] != "" {
		return false, "Owner already in room"
	}
	roomID := "room_" + owner
	m.rooms[roomID] = &Room{
		ID:      roomID,
		Owner:   owner,
		Scene:   scene,
		Members: map[string]struct{}{owner: {}},
	}
	m.sessionRooms[owner] = roomID
	return true, roomID
}

// JoinRoom executes the joinRoom method.
func (m *Manager) JoinRoom(uid string, roomID string) (bool, string, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessionRooms[uid]; !ok {
		return false, "Session does not exist", nil
	}
	if m.sessionRooms[uid] != "" {
		return false, "Session already in room", nil
	}
	rm, ok := m.rooms[roomID]
	if !ok {
		return false, "Room does not exist", nil
	}
	rm.Members[uid] = struct{}{}
	m.sessionRooms[uid] = roomID

	return true, "Session added to room", memberList(rm)
}

// LeaveRoom executes the leaveRoom method.
func (m *Manager) LeaveRoom(remover string, target string) (bool, string, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	roomID := m.sessionRooms[target]
	if roomID == "" {
		return false, "Target not in room", nil
	}
	rm := m.rooms[roomID]
	if remover != rm.Owner && remover != target {
		return false, "Only owner or self can remove", nil
	}
	delete(rm.Members, target)
	m.sessionRooms[target] = ""
	if rm.Owner == target {
		for member := range rm.Members {
			rm.Owner = member
			break
		}
	}
	if len(rm.Members) == 0 {
		delete(m.rooms, roomID)
		return true, "Room removed", nil
	}
	return true, "Session removed from room", memberList(rm)
}

// RemoveSession executes the removeSession method.
func (m *Manager) RemoveSession(uid string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	roomID := m.sessionRooms[uid]
	if roomID == "" {
		delete(m.sessionRooms, uid)
		return nil
	}
	rm, ok := m.rooms[roomID]
	if !ok {
		delete(m.sessionRooms, uid)
		return nil
	}
	delete(rm.Members, uid)
	delete(m.sessionRooms, uid)

	if rm.Owner == uid {
		for member := range rm.Members {
			rm.Owner = member
			break
		}
	}
	if len(rm.Members) == 0 {
		delete(m.rooms, roomID)
		return nil
	}
	return memberList(rm)
}

// Members executes the members method.
func (m *Manager) Members(uid string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	roomID := m.sessionRooms[uid]
	if roomID == "" {
		return nil
	}
	rm := m.rooms[roomID]
	if rm == nil {
		return nil
	}
	return memberList(rm)
}

// IsOwner executes the isOwner method.
func (m *Manager) IsOwner(uid string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	roomID := m.sessionRooms[uid]
	if roomID == "" {
		return false
	}
	rm := m.rooms[roomID]
	if rm == nil {
		return false
	}
	return rm.Owner == uid
}

// RoomOf returns the id of the room a session is in, or "".
func (m *Manager) RoomOf(uid string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionRooms[uid]
}

// Rooms lists every open room sorted by id.
func (m *Manager) Rooms() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Info, 0, len(m.rooms))
	for _, rm := range m.rooms {
		out = append(out, Info{
			ID:      rm.ID,
			Owner:   rm.Owner,
			Scene:   rm.Scene,
			Members: memberList(rm),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func memberList(rm *Room) []string {
	members := make([]string, 0, len(rm.Members))
	for member := range rm.Members {
		members = append(members, member)
	}
	sort.Strings(members)
	return members
}
