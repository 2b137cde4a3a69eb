package caselog

// Milestone classifies the lifecycle task types that survive summarized
// rendering.
type Milestone string

const (
	MilestoneNone        Milestone = ""
	MilestoneCreation    Milestone = "creation"
	MilestoneSent        Milestone = "sent"
	MilestoneReceived    Milestone = "received"
	MilestoneClosure     Milestone = "closure"
	MilestoneAutoClosure Milestone = "auto_closure"
	MilestoneReopening   Milestone = "reopening"
)

// Task type codes of the lifecycle milestones.
const (
	TaskCreation    = "GERACAO-PROCEDIMENTO"
	TaskSent        = "PROCESSO-REMETIDO-UNIDADE"
	TaskReceived    = "PROCESSO-RECEBIDO-UNIDADE"
	TaskClosure     = "CONCLUSAO-PROCESSO-UNIDADE"
	TaskAutoClosure = "CONCLUSAO-AUTOMATICA-UNIDADE"
	TaskReopening   = "REABERTURA-PROCESSO-UNIDADE"
)

var milestones = map[string]Milestone{
	TaskCreation:    MilestoneCreation,
	TaskSent:        MilestoneSent,
	TaskReceived:    MilestoneReceived,
	TaskClosure:     MilestoneClosure,
	TaskAutoClosure: MilestoneAutoClosure,
	TaskReopening:   MilestoneReopening,
}

var milestoneLabels = map[Milestone]string{
	MilestoneCreation:    "Process created",
	MilestoneSent:        "Sent to unit",
	MilestoneReceived:    "Received by unit",
	MilestoneClosure:     "Closed in unit",
	MilestoneAutoClosure: "Closed automatically",
	MilestoneReopening:   "Reopened",
}

// MilestoneOf returns the milestone kind of a task type, or MilestoneNone.
func MilestoneOf(taskType string) Milestone {
	return milestones[taskType]
}

// Label is a short human readable name for the milestone.
func (m Milestone) Label() string {
	return milestoneLabels[m]
}

// IsSignificant reports whether e is a lifecycle milestone. All other
// events are noise for summarized rendering.
func IsSignificant(e Event) bool {
	_, ok := milestones[e.TaskType]
	return ok
}
