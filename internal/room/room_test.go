package room

import "testing"

func TestOpenRoomAndJoin(t *testing.T) {
	m := NewManager()
	m.RegisterSession("tablet1")
	m.RegisterSession("observer1")

	ok, roomID := m.OpenRoom("tablet1", "jungle")
	if !ok {
		t.Fatalf("OpenRoom failed: %s", roomID)
	}
	if roomID != "room_tablet1" {
		t.Errorf("roomID=%q, want room_tablet1", roomID)
	}
	if !m.IsOwner("tablet1") {
		t.Errorf("IsOwner(tablet1)=false")
	}

	ok, msg, members := m.JoinRoom("observer1", roomID)
	if !ok {
		t.Fatalf("JoinRoom failed: %s", msg)
	}
	if len(members) != 2 {
		t.Errorf("members=%v, want 2 entries", members)
	}
	if m.RoomOf("observer1") != roomID {
		t.Errorf("RoomOf(observer1)=%q, want %q", m.RoomOf("observer1"), roomID)
	}
}

func TestOpenRoomRejectsUnknownOrBusyOwner(t *testing.T) {
	m := NewManager()
	if ok, _ := m.OpenRoom("ghost", "jungle"); ok {
		t.Errorf("OpenRoom accepted unregistered owner")
	}
	m.RegisterSession("tablet1")
	if ok, _ := m.OpenRoom("tablet1", "jungle"); !ok {
		t.Fatalf("OpenRoom failed")
	}
	if ok, _ := m.OpenRoom("tablet1", "beach"); ok {
		t.Errorf("OpenRoom accepted owner already in room")
	}
}

func TestJoinRoomRejections(t *testing.T) {
	m := NewManager()
	m.RegisterSession("tablet1")
	m.RegisterSession("observer1")
	if ok, msg, _ := m.JoinRoom("observer1", "room_none"); ok {
		t.Errorf("JoinRoom accepted missing room: %s", msg)
	}
	if ok, _, _ := m.JoinRoom("ghost", "room_none"); ok {
		t.Errorf("JoinRoom accepted unregistered session")
	}

	m.OpenRoom("tablet1", "jungle")
	m.JoinRoom("observer1", "room_tablet1")
	if ok, msg, _ := m.JoinRoom("observer1", "room_tablet1"); ok {
		t.Errorf("JoinRoom accepted double join: %s", msg)
	}
}

func TestLeaveRoomPermissions(t *testing.T) {
	m := NewManager()
	m.RegisterSession("tablet1")
	m.RegisterSession("observer1")
	m.RegisterSession("observer2")
	m.OpenRoom("tablet1", "jungle")
	m.JoinRoom("observer1", "room_tablet1")
	m.JoinRoom("observer2", "room_tablet1")

	if ok, _, _ := m.LeaveRoom("observer1", "observer2"); ok {
		t.Errorf("LeaveRoom let a non-owner remove another member")
	}
	if ok, _, _ := m.LeaveRoom("observer1", "observer1"); !ok {
		t.Errorf("LeaveRoom refused self removal")
	}
	if ok, _, _ := m.LeaveRoom("tablet1", "observer2"); !ok {
		t.Errorf("LeaveRoom refused owner removal")
	}
}

func TestRemoveSessionHandsOffOwner(t *testing.T) {
	m := NewManager()
	m.RegisterSession("tablet1")
	m.RegisterSession("observer1")
	m.OpenRoom("tablet1", "jungle")
	m.JoinRoom("observer1", "room_tablet1")

	members := m.RemoveSession("tablet1")
	if len(members) != 1 || members[0] != "observer1" {
		t.Fatalf("members=%v, want [observer1]", members)
	}
	if !m.IsOwner("observer1") {
		t.Errorf("ownership did not hand off to remaining member")
	}

	if got := m.RemoveSession("observer1"); got != nil {
		t.Errorf("RemoveSession=%v, want nil after room emptied", got)
	}
	if rooms := m.Rooms(); len(rooms) != 0 {
		t.Errorf("rooms=%v, want empty", rooms)
	}
}

func TestRoomsSnapshot(t *testing.T) {
	m := NewManager()
	m.RegisterSession("b")
	m.RegisterSession("a")
	m.OpenRoom("b", "beach")
	m.OpenRoom("a", "jungle")

	rooms := m.Rooms()
	if len(rooms) != 2 {
		t.Fatalf("rooms=%d, want 2", len(rooms))
	}
	if rooms[0].ID != "room_a" || rooms[1].ID != "room_b" {
		t.Errorf("order=%s,%s, want room_a,room_b", rooms[0].ID, rooms[1].ID)
	}
	if rooms[0].Scene != "jungle" {
		t.Errorf("scene=%q, want jungle", rooms[0].Scene)
	}
}
