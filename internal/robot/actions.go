package robot

import (
	"errors"
	"fmt"
	"strings"
)

// speechRoot is the path prefix for speech clips under the robot's audio
// content root.
const speechRoot = "game_speech/"

// Motion clip names understood by the robot body.
const (
	MotionExcited       = "EXCITED"
	MotionInterested    = "INTERESTED"
	MotionYes           = "YES"
	MotionHappyDance    = "HAPPY_DANCE"
	MotionPoseForward   = "POSE_FORWARD"
	MotionShimmy        = "SHIMMY"
	MotionCircling      = "CIRCLING"
	MotionPerkUp        = "PERKUP"
	MotionNod           = "NOD"
	MotionThinking      = "THINKING"
	MotionSad           = "SAD"
	MotionPuzzled       = "PUZZLED"
	MotionFlatAgreement = "FLAT_AGREEMENT"
	MotionFrustrated    = "FRUSTRATED"
)

// ActionForBehavior translates a physical behavior name into the action
// message sent to the robot backend. Speech behaviors take the spoken word
// or clip name as the first argument.
func ActionForBehavior(behavior string, args ...string) (Action, error) {
	action := Action{Behavior: behavior}
	switch behavior {
	case LookAtTablet:
		action.LookAt = &Vec3{X: 0, Y: -10, Z: 20}
	case LookCenter:
		action.LookAt = &Vec3{X: 0, Y: 10, Z: 40}
	case Excited:
		action.Motion = MotionExcited
	case Interested:
		action.Motion = MotionInterested
	case Yes:
		action.Motion = MotionYes
	case HappyDance:
		action.Motion = MotionHappyDance
	case Curious:
		action.Motion = MotionPoseForward
	case Attention:
		action.Motion = MotionShimmy
	case Celebration:
		action.Motion = MotionCircling
	case Encouraging:
		action.Motion = MotionPerkUp
	case Wink:
		action.Motion = MotionNod
	case Thinking:
		action.Motion = MotionThinking
	case Sad:
		action.Motion = MotionSad
	case Unsure:
		action.Motion = MotionPuzzled
	case Comfort:
		action.Motion = MotionFlatAgreement
	case AskHelp:
		action.Motion = MotionPoseForward
	case Disappointed:
		action.Motion = MotionFrustrated
	case CustomSpeech:
		if firstArg(args) == "" {
			return Action{}, errors.New("custom speech requires a clip path")
		}
		action.Speech = firstArg(args)
		action.Enqueue = true
	case SayWord:
		if firstArg(args) == "" {
			return Action{}, errors.New("say word requires a word")
		}
		action.Speech = speechRoot + "object_words/" + strings.ToLower(firstArg(args)) + ".mp3"
		action.Enqueue = true
	case TryPronounce:
		action.Speech = speechRoot + "prompts/try_pronounce.wav"
		action.Enqueue = true
	case BeforeGameSpeech:
		action.Speech = speechRoot + "intro/before_game.wav"
		action.Enqueue = true
	case VocabExplanation:
		if firstArg(args) == "" {
			return Action{}, errors.New("vocab explanation requires a word")
		}
		action.Speech = speechRoot + "vocab/" + strings.ToLower(firstArg(args)) + ".wav"
		action.Enqueue = true
	case HintSpeech:
		if firstArg(args) == "" {
			return Action{}, errors.New("hint requires a word")
		}
		action.Speech = speechRoot + "hints/" + strings.ToLower(firstArg(args)) + ".wav"
		action.Enqueue = true
	case KeywordDefinition:
		if firstArg(args) == "" {
			return Action{}, errors.New("keyword definition requires a word")
		}
		action.Speech = speechRoot + "definitions/" + strings.ToLower(firstArg(args)) + ".wav"
		action.Enqueue = true
	case VirtualClickCorrect, VirtualClickWrong, VirtualExplore, VirtualClickSay, VirtualHelpChild:
		return Action{}, fmt.Errorf("virtual behavior has no robot action: %s", behavior)
	default:
		return Action{}, fmt.Errorf("unknown robot behavior: %s", behavior)
	}
	return action, nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return strings.TrimSpace(args[0])
}
