// Package robot drives the physical robot companion: a reconnecting
// WebSocket client for the robot backend plus the behavior tables that
// turn social-role decisions into concrete robot actions.
package robot

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/eyzhang1221/unity-game-controllers/resources"
)

// Behavior names. Physical behaviors become robot actions, virtual
// behaviors become in-app moves performed through the tablet.
const (
	LookAtTablet = "LOOK_AT_TABLET"
	LookCenter   = "LOOK_CENTER"

	Excited     = "ROBOT_EXCITED"
	Interested  = "ROBOT_INTERESTED"
	Yes         = "ROBOT_YES"
	HappyDance  = "ROBOT_HAPPY_DANCE"
	Curious     = "ROBOT_CURIOUS"
	Attention   = "ROBOT_ATTENTION"
	Celebration = "ROBOT_CELEBRATION"
	Encouraging = "ROBOT_ENCOURAGING"
	Wink        = "ROBOT_WINK"
	Thinking    = "ROBOT_THINKING"

	Sad          = "ROBOT_SAD"
	Unsure       = "ROBOT_UNSURE"
	Comfort      = "ROBOT_COMFORT"
	AskHelp      = "ROBOT_ASK_HELP"
	Disappointed = "ROBOT_DISAPPOINTED"

	SayWord           = "ROBOT_SAY_WORD"
	CustomSpeech      = "ROBOT_CUSTOM_SPEECH"
	TryPronounce      = "TRY_PRONOUNCE"
	BeforeGameSpeech  = "ROBOT_BEFORE_GAME_SPEECH"
	VocabExplanation  = "VOCAB_EXPLANATION_SPEECH"
	HintSpeech        = "HINT_SPEECH"
	KeywordDefinition = "KEYWORD_DEFINITION_SPEECH"

	VirtualClickCorrect = "CLICK_CORRECT_OBJ"
	VirtualClickWrong   = "CLICK_WRONG_OBJ"
	VirtualExplore      = "EXPLORING"
	VirtualClickSay     = "CLICK_SAY_BUTTON"
	VirtualHelpChild    = "HELP_CHILD"
)

// IsVirtual reports whether a behavior runs inside the tablet app instead
// of on the robot body.
func IsVirtual(behavior string) bool {
	switch behavior {
	case VirtualClickCorrect, VirtualClickWrong, VirtualExplore, VirtualClickSay, VirtualHelpChild:
		return true
	}
	return false
}

type turnActions struct {
	Physical []string `json:"physical"`
	Virtual  []string `json:"virtual"`
}

// RolesBehaviorsMap represents a rolesBehaviorsMap.
type RolesBehaviorsMap struct {
	actions map[string]map[string]turnActions
}

// NewRolesBehaviorsMap loads the embedded role-to-behavior table.
func NewRolesBehaviorsMap() (*RolesBehaviorsMap, error) {
	data, err := resources.RobotActions()
	if err != nil {
		return nil, err
	}
	var actions map[string]map[string]turnActions
	if err := json.Unmarshal(data, &actions); err != nil {
		return nil, fmt.Errorf("parse robot actions: %w", err)
	}
	return &RolesBehaviorsMap{actions: actions}, nil
}

// Physical returns the physical behaviors for a role during a turn.
func (m *RolesBehaviorsMap) Physical(role string, turn string) []string {
	return m.lookup(role, turn).Physical
}

// Virtual returns the in-app behaviors for a role during a turn.
func (m *RolesBehaviorsMap) Virtual(role string, turn string) []string {
	return m.lookup(role, turn).Virtual
}

// Unknown roles fall back to the backup entry.
func (m *RolesBehaviorsMap) lookup(role string, turn string) turnActions {
	roleActions, ok := m.actions[strings.ToLower(strings.TrimSpace(role))]
	if !ok {
		roleActions, ok = m.actions["backup"]
		if !ok {
			return turnActions{}
		}
	}
	key := strings.ToLower(strings.TrimSpace(turn))
	if !strings.HasSuffix(key, "_turn") {
		key += "_turn"
	}
	return roleActions[key]
}
