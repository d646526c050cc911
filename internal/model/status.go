package model

// RunState represents the stage a PipelineRun is currently in
type RunState string

const (
	// RunStateResolving means item metadata is being fetched
	RunStateResolving RunState = "Resolving"

	// RunStateSelecting means concrete streams are being chosen
	RunStateSelecting RunState = "Selecting"

	// RunStateFetching means selected streams are being downloaded
	RunStateFetching RunState = "Fetching"

	// RunStateCaptioning means the caption track is being extracted (no-op if not requested)
	RunStateCaptioning RunState = "Captioning"

	// RunStateMuxing means the external transcoder is producing the final file
	RunStateMuxing RunState = "Muxing"

	// RunStateDone means the final file was produced
	RunStateDone RunState = "Done"

	// RunStateFailed means the run stopped with an error
	RunStateFailed RunState = "Failed"
)

// runStateOrder is the strict sequence a successful run walks through.
var runStateOrder = []RunState{
	RunStateResolving,
	RunStateSelecting,
	RunStateFetching,
	RunStateCaptioning,
	RunStateMuxing,
	RunStateDone,
}

// String returns the string representation of RunState
func (rs RunState) String() string {
	return string(rs)
}

// IsTerminal returns true if the run cannot leave this state
func (rs RunState) IsTerminal() bool {
	return rs == RunStateDone || rs == RunStateFailed
}

// Next returns the state following rs on the success path.
// Terminal states have no successor.
func (rs RunState) Next() (RunState, bool) {
	for i, s := range runStateOrder {
		if s == rs && i+1 < len(runStateOrder) {
			return runStateOrder[i+1], true
		}
	}
	return "", false
}

// CanTransition reports whether moving from rs to next is allowed:
// one step forward on the success path, or to Failed from any non-terminal state.
func (rs RunState) CanTransition(next RunState) bool {
	if rs.IsTerminal() {
		return false
	}
	if next == RunStateFailed {
		return true
	}
	want, ok := rs.Next()
	return ok && want == next
}
