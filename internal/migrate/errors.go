package migrate

import (
	"fmt"
	"sort"
	"strings"
)

// Warning codes recorded in the migration summary. Warnings are non-fatal;
// the run completes and the summary enumerates every one of them.
const (
	WarnUnsupportedConnectionType = "unsupported_connection_type"
	WarnInvalidCron               = "invalid_cron"
	WarnUnknownTriggerJob         = "unknown_trigger_job"
	WarnMissingRepository         = "missing_repository"
)

// Warning is a non-fatal mapping issue that requires manual follow-up.
type Warning struct {
	Code    string
	Entity  string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("[%s] %s: %s", w.Code, w.Entity, w.Message)
}

// DanglingReferenceError indicates a job references an environment that does
// not exist in the snapshot. This is a data-integrity failure for the whole
// run: a partially mapped project is worse than no project.
type DanglingReferenceError struct {
	JobID         int64
	EnvironmentID int64
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("job %d references unknown environment %d", e.JobID, e.EnvironmentID)
}

// TriggerCycleError indicates the job-completion trigger graph contains a
// cycle. Emitting sensors for it would produce an infinite reactive loop, so
// no sensors are emitted for any project touched by the cycle and the run
// fails before writing artifacts.
type TriggerCycleError struct {
	JobIDs []int64
}

func (e *TriggerCycleError) Error() string {
	ids := append([]int64(nil), e.JobIDs...)
	sort.Slice(ids, func(i, k int) bool { return ids[i] < ids[k] })
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("job-completion triggers form a cycle involving jobs [%s]", strings.Join(parts, ", "))
}
