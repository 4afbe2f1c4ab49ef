package fsm

import (
	"fmt"
	"strings"
	"sync"
)

// State describes the high-level game state for a tablet session.
type State string

const (
	StateIdle      State = "idle"
	StateIntro     State = "intro"
	StateChildTurn State = "child_turn"
	StateRobotTurn State = "robot_turn"
	StateListening State = "listening"
	StateScoring   State = "scoring"
	StateFinished  State = "finished"
)

// Role is the part the robot plays in the game. An expert robot
// demonstrates and takes the first turn; a novice robot learns from the
// child and lets the child start.
type Role string

const (
	RoleExpert Role = "expert"
	RoleNovice Role = "novice"
)

// Turn identifies who holds the current game turn.
type Turn string

const (
	TurnChild Turn = "child"
	TurnRobot Turn = "robot"
)

// Machine is a lightweight deterministic game session state machine. The
// turn holder is tracked separately from the state so listening and
// scoring keep it across transitions.
type Machine struct {
	mu    sync.RWMutex
	state State
	role  Role
	turn  Turn
}

// New creates a state machine with default idle/novice values.
func New() *Machine {
	return &Machine{
		state: StateIdle,
		role:  RoleNovice,
		turn:  TurnChild,
	}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Role returns the robot role.
func (m *Machine) Role() Role {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.role
}

// Turn returns the current turn holder.
func (m *Machine) Turn() Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.turn
}

// SetRole updates the robot role policy.
func (m *Machine) SetRole(role string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch strings.TrimSpace(strings.ToLower(role)) {
	case string(RoleExpert):
		m.role = RoleExpert
	default:
		m.role = RoleNovice
	}
}

// OnGameStart moves the session into the intro phase.
func (m *Machine) OnGameStart() {
	m.transition(StateIntro)
}

// OnIntroDone opens the first turn according to role policy.
func (m *Machine) OnIntroDone() {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.role {
	case RoleExpert:
		m.turn = TurnRobot
		m.state = StateRobotTurn
	default:
		m.turn = TurnChild
		m.state = StateChildTurn
	}
}

// OnTurnStart opens a turn for an explicit holder.
func (m *Machine) OnTurnStart(turn Turn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turn = turn
	if turn == TurnRobot {
		m.state = StateRobotTurn
		return
	}
	m.state = StateChildTurn
}

// OnListenStart marks microphone capture for a pronunciation attempt.
func (m *Machine) OnListenStart() {
	m.transition(StateListening)
}

// OnRecordComplete marks the utterance collected and awaiting scores.
func (m *Machine) OnRecordComplete() {
	m.transition(StateScoring)
}

// OnScoreReady returns to the turn in progress once accuracy results
// have been delivered.
func (m *Machine) OnScoreReady() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.turn == TurnRobot {
		m.state = StateRobotTurn
		return
	}
	m.state = StateChildTurn
}

// OnTurnFinished hands the turn to the other player.
func (m *Machine) OnTurnFinished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.turn == TurnChild {
		m.turn = TurnRobot
		m.state = StateRobotTurn
		return
	}
	m.turn = TurnChild
	m.state = StateChildTurn
}

// OnGameFinished marks the session complete.
func (m *Machine) OnGameFinished() {
	m.transition(StateFinished)
}

// Force sets state unconditionally.
func (m *Machine) Force(state State) error {
	switch state {
	case StateIdle, StateIntro, StateChildTurn, StateRobotTurn, StateListening, StateScoring, StateFinished:
		m.transition(state)
		return nil
	default:
		return fmt.Errorf("invalid state: %s", state)
	}
}

func (m *Machine) transition(state State) {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
}
