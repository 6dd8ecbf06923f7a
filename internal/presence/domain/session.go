package domain

// Phase identifies which part of a session a check-in belongs to. A student
// may be asked to prove presence at the start, after a break, and at the end,
// and each phase keeps its own challenges, locks and records.
type Phase string

const (
	PhaseStart Phase = "start"
	PhaseBreak Phase = "break"
	PhaseEnd   Phase = "end"
)

// SessionKey builds the canonical map key for per-(session, phase) state.
func SessionKey(sid string, phase Phase) string {
	return sid + "|" + string(phase)
}
