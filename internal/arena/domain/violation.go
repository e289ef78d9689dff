package domain

// Violation is the closed set of reasons an action can be rejected. Rejection
// categories are never inferred from error text; the rules validator emits
// these codes directly.
type Violation string

const (
	// ViolationNone marks a legal action.
	ViolationNone Violation = ""
	// ViolationDeadActor rejects actions from eliminated participants.
	ViolationDeadActor Violation = "dead_actor"
	// ViolationUnknownTarget rejects targets outside the participant list.
	ViolationUnknownTarget Violation = "unknown_target"
	// ViolationWrongPhaseAction rejects action kinds the phase never accepts.
	ViolationWrongPhaseAction Violation = "wrong_phase_action"
	// ViolationWrongRole rejects role-restricted actions by the wrong role.
	ViolationWrongRole Violation = "wrong_role"
	// ViolationMissingTarget rejects actions that need a target but carry none.
	ViolationMissingTarget Violation = "missing_target"
	// ViolationTargetNotAlive rejects targets that are already eliminated.
	ViolationTargetNotAlive Violation = "target_not_alive"
	// ViolationSelfTarget rejects self-directed votes and investigations.
	ViolationSelfTarget Violation = "self_target"
	// ViolationTeammateTarget rejects werewolf kills aimed at werewolves.
	ViolationTeammateTarget Violation = "teammate_target"
	// ViolationResourceExhausted rejects reuse of a spent witch potion.
	ViolationResourceExhausted Violation = "resource_exhausted"
	// ViolationHealTargetMismatch rejects heals aimed away from the night kill.
	ViolationHealTargetMismatch Violation = "heal_target_mismatch"
	// ViolationNotObligatedHunter rejects shots from anyone but the pending hunter.
	ViolationNotObligatedHunter Violation = "not_obligated_hunter"
	// ViolationInvalidPhase rejects actions submitted in a non-action phase.
	ViolationInvalidPhase Violation = "invalid_phase"
)

// Communication-failure causes recorded by the orchestration loop. They share
// the ledger with rule violations but are a distinct class: the participant
// never produced a usable action.
const (
	CauseTimeout           Violation = "agent_timeout"
	CauseTransportFailure  Violation = "agent_transport_failure"
	CauseMalformedResponse Violation = "agent_malformed_response"
)
