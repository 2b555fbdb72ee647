package events

// Event type constants for audit runs.
const (
	TypeRunStarted   = "run_started"
	TypeRunCompleted = "run_completed"
	TypeRunFailed    = "run_failed"

	TypePhaseStarted   = "phase_started"
	TypePhaseCompleted = "phase_completed"

	TypeAgentStarted   = "agent_started"
	TypeAgentCompleted = "agent_completed"
	TypeAgentFailed    = "agent_failed"
	TypeAgentSkipped   = "agent_skipped"

	TypeRevisionRequested = "revision_requested"
	TypeRevisionAccepted  = "revision_accepted"
	TypeCeilingReached    = "ceiling_reached"

	TypeCollectStarted   = "collect_started"
	TypeCollectCompleted = "collect_completed"
)

// RunStarted signals the beginning of an audit run.
type RunStarted struct {
	BaseEvent
	Subject string `json:"subject"`
	Website string `json:"website"`
}

// NewRunStarted creates a run started event.
func NewRunStarted(runID, subject, website string) RunStarted {
	return RunStarted{
		BaseEvent: NewBaseEvent(TypeRunStarted, runID),
		Subject:   subject,
		Website:   website,
	}
}

// RunCompleted signals that a run finished and produced a report.
type RunCompleted struct {
	BaseEvent
	OverallPct float64 `json:"overall_pct"`
	Outcome    string  `json:"outcome"`
}

// NewRunCompleted creates a run completed event.
func NewRunCompleted(runID string, overallPct float64, outcome string) RunCompleted {
	return RunCompleted{
		BaseEvent:  NewBaseEvent(TypeRunCompleted, runID),
		OverallPct: overallPct,
		Outcome:    outcome,
	}
}

// RunFailed signals a fatal error that aborted the run.
type RunFailed struct {
	BaseEvent
	Error string `json:"error"`
}

// NewRunFailed creates a run failed event.
func NewRunFailed(runID, errMsg string) RunFailed {
	return RunFailed{
		BaseEvent: NewBaseEvent(TypeRunFailed, runID),
		Error:     errMsg,
	}
}

// PhaseStarted signals that a scheduler phase began.
type PhaseStarted struct {
	BaseEvent
	Phase  int      `json:"phase"`
	Agents []string `json:"agents"`
}

// NewPhaseStarted creates a phase started event.
func NewPhaseStarted(runID string, phase int, agents []string) PhaseStarted {
	return PhaseStarted{
		BaseEvent: NewBaseEvent(TypePhaseStarted, runID),
		Phase:     phase,
		Agents:    agents,
	}
}

// PhaseCompleted signals that every agent in a phase finished or was skipped.
type PhaseCompleted struct {
	BaseEvent
	Phase     int `json:"phase"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// NewPhaseCompleted creates a phase completed event.
func NewPhaseCompleted(runID string, phase, succeeded, failed, skipped int) PhaseCompleted {
	return PhaseCompleted{
		BaseEvent: NewBaseEvent(TypePhaseCompleted, runID),
		Phase:     phase,
		Succeeded: succeeded,
		Failed:    failed,
		Skipped:   skipped,
	}
}

// AgentStarted signals an agent invocation.
type AgentStarted struct {
	BaseEvent
	Agent string `json:"agent"`
	Phase int    `json:"phase"`
}

// NewAgentStarted creates an agent started event.
func NewAgentStarted(runID, agent string, phase int) AgentStarted {
	return AgentStarted{
		BaseEvent: NewBaseEvent(TypeAgentStarted, runID),
		Agent:     agent,
		Phase:     phase,
	}
}

// AgentCompleted signals a successful agent invocation.
type AgentCompleted struct {
	BaseEvent
	Agent      string  `json:"agent"`
	Percentage float64 `json:"percentage"`
	Revisions  int     `json:"revisions"`
	Degraded   bool    `json:"degraded"`
}

// NewAgentCompleted creates an agent completed event.
func NewAgentCompleted(runID, agent string, percentage float64, revisions int, degraded bool) AgentCompleted {
	return AgentCompleted{
		BaseEvent:  NewBaseEvent(TypeAgentCompleted, runID),
		Agent:      agent,
		Percentage: percentage,
		Revisions:  revisions,
		Degraded:   degraded,
	}
}

// AgentFailed signals an agent that errored out.
type AgentFailed struct {
	BaseEvent
	Agent string `json:"agent"`
	Error string `json:"error"`
}

// NewAgentFailed creates an agent failed event.
func NewAgentFailed(runID, agent, errMsg string) AgentFailed {
	return AgentFailed{
		BaseEvent: NewBaseEvent(TypeAgentFailed, runID),
		Agent:     agent,
		Error:     errMsg,
	}
}

// AgentSkipped signals an agent skipped because a dependency did not produce
// a result.
type AgentSkipped struct {
	BaseEvent
	Agent   string   `json:"agent"`
	Missing []string `json:"missing"`
}

// NewAgentSkipped creates an agent skipped event.
func NewAgentSkipped(runID, agent string, missing []string) AgentSkipped {
	return AgentSkipped{
		BaseEvent: NewBaseEvent(TypeAgentSkipped, runID),
		Agent:     agent,
		Missing:   missing,
	}
}

// RevisionRequested signals that quality gates rejected an analysis.
type RevisionRequested struct {
	BaseEvent
	Agent      string   `json:"agent"`
	Cycle      int      `json:"cycle"`
	Violations []string `json:"violations"`
}

// NewRevisionRequested creates a revision requested event.
func NewRevisionRequested(runID, agent string, cycle int, violations []string) RevisionRequested {
	return RevisionRequested{
		BaseEvent:  NewBaseEvent(TypeRevisionRequested, runID),
		Agent:      agent,
		Cycle:      cycle,
		Violations: violations,
	}
}

// RevisionAccepted signals that a revised analysis passed the gates.
type RevisionAccepted struct {
	BaseEvent
	Agent string `json:"agent"`
	Cycle int    `json:"cycle"`
}

// NewRevisionAccepted creates a revision accepted event.
func NewRevisionAccepted(runID, agent string, cycle int) RevisionAccepted {
	return RevisionAccepted{
		BaseEvent: NewBaseEvent(TypeRevisionAccepted, runID),
		Agent:     agent,
		Cycle:     cycle,
	}
}

// CeilingReached signals that an agent hit the revision cycle ceiling and
// its last result was accepted as-is.
type CeilingReached struct {
	BaseEvent
	Agent  string `json:"agent"`
	Cycles int    `json:"cycles"`
}

// NewCeilingReached creates a ceiling reached event.
func NewCeilingReached(runID, agent string, cycles int) CeilingReached {
	return CeilingReached{
		BaseEvent: NewBaseEvent(TypeCeilingReached, runID),
		Agent:     agent,
		Cycles:    cycles,
	}
}

// CollectStarted signals the start of the crawl step.
type CollectStarted struct {
	BaseEvent
	RootURL  string `json:"root_url"`
	MaxPages int    `json:"max_pages"`
}

// NewCollectStarted creates a collect started event.
func NewCollectStarted(runID, rootURL string, maxPages int) CollectStarted {
	return CollectStarted{
		BaseEvent: NewBaseEvent(TypeCollectStarted, runID),
		RootURL:   rootURL,
		MaxPages:  maxPages,
	}
}

// CollectCompleted signals the end of the crawl step.
type CollectCompleted struct {
	BaseEvent
	Pages int `json:"pages"`
}

// NewCollectCompleted creates a collect completed event.
func NewCollectCompleted(runID string, pages int) CollectCompleted {
	return CollectCompleted{
		BaseEvent: NewBaseEvent(TypeCollectCompleted, runID),
		Pages:     pages,
	}
}
