// Package domain holds the lead record types and the stage set.
package domain

// Stage is the lifecycle stage of a lead. Stages form a set, not an ordering.
type Stage string

const (
	StageNew              Stage = "New"
	StageAgedLowPriority  Stage = "Aged_Low_Priority"
	StageAgedHighPriority Stage = "Aged_High_Priority"
	StageRetargetedNoShow Stage = "Retargeted_No_Show"
	StageRetargetedRehash Stage = "Retargeted_Rehash"
	StageConverted        Stage = "Converted"
	StageDoNotCall        Stage = "Do_Not_Call"
)

var knownStages = map[Stage]struct{}{
	StageNew:              {},
	StageAgedLowPriority:  {},
	StageAgedHighPriority: {},
	StageRetargetedNoShow: {},
	StageRetargetedRehash: {},
	StageConverted:        {},
	StageDoNotCall:        {},
}

// terminalStages halt scheduling: the follow-up scan never selects them.
var terminalStages = map[Stage]bool{
	StageConverted: true,
	StageDoNotCall: true,
}

// IsKnownStage reports whether s is one of the lifecycle stages.
func IsKnownStage(s Stage) bool {
	_, ok := knownStages[s]
	return ok
}

// IsTerminal returns true for stages that end outreach.
func (s Stage) IsTerminal() bool {
	return terminalStages[s]
}

// TerminalStages lists the stages excluded from follow-up.
func TerminalStages() []Stage {
	return []Stage{StageDoNotCall, StageConverted}
}

// ParseStage converts a stored or submitted value into a Stage.
func ParseStage(value string) (Stage, bool) {
	s := Stage(value)
	if !IsKnownStage(s) {
		return "", false
	}
	return s, true
}
