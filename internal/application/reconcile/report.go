package reconcile

import (
	"fmt"
	"time"

	"github.com/thedub2001/skull01/internal/domain/graph"
	appErrors "github.com/thedub2001/skull01/pkg/errors"
)

// Direction of a reconciliation run.
type Direction string

const (
	DirectionPull Direction = "pull"
	DirectionPush Direction = "push"
)

// Phase of a single row operation.
type Phase string

const (
	PhaseImport        Phase = "import"
	PhaseEnsureDataset Phase = "ensure_dataset"
	PhaseDelete        Phase = "delete"
	PhaseInsert        Phase = "insert"
)

// RowOp is one per-row step of a run. Err is nil once the step succeeded.
type RowOp struct {
	Phase      Phase            `json:"phase"`
	Collection graph.Collection `json:"collection"`
	ID         string           `json:"id"`
	Err        error            `json:"-"`
	Error      string           `json:"error,omitempty"`

	// row is kept so a failed insert can be replayed.
	row graph.Record
}

func (op *RowOp) setErr(err error) {
	op.Err = err
	if err != nil {
		op.Error = err.Error()
	}
}

// Report records every row operation of one pull or push.
type Report struct {
	Direction  Direction `json:"direction"`
	DatasetID  string    `json:"dataset_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Ops        []*RowOp  `json:"ops"`
}

func newReport(dir Direction, datasetID string) *Report {
	return &Report{
		Direction: dir,
		DatasetID: datasetID,
		StartedAt: time.Now().UTC(),
		Ops:       make([]*RowOp, 0),
	}
}

func (r *Report) add(ops ...*RowOp) {
	r.Ops = append(r.Ops, ops...)
}

func (r *Report) finish() {
	r.FinishedAt = time.Now().UTC()
}

// Failed returns the operations that did not succeed, in report order.
func (r *Report) Failed() []*RowOp {
	var failed []*RowOp
	for _, op := range r.Ops {
		if op.Err != nil {
			failed = append(failed, op)
		}
	}
	return failed
}

// Transferred counts the successful imports or inserts per collection.
func (r *Report) Transferred() map[string]int {
	counts := make(map[string]int)
	for _, op := range r.Ops {
		if op.Err == nil && (op.Phase == PhaseImport || op.Phase == PhaseInsert) {
			counts[op.Collection.String()]++
		}
	}
	return counts
}

// Summary is the compact form of a report, used in events and logs.
func (r *Report) Summary() map[string]any {
	return map[string]any{
		"direction":   string(r.Direction),
		"operations":  len(r.Ops),
		"failed":      len(r.Failed()),
		"transferred": r.Transferred(),
		"duration_ms": r.FinishedAt.Sub(r.StartedAt).Milliseconds(),
	}
}

// partialSyncError reports that some row operations failed and can be
// retried.
func partialSyncError(r *Report) error {
	failed := r.Failed()
	ids := make([]string, 0, len(failed))
	for _, op := range failed {
		ids = append(ids, fmt.Sprintf("%s %s/%s", op.Phase, op.Collection, op.ID))
	}
	return appErrors.NewConflictError(fmt.Sprintf("%s of dataset %s: %d of %d row operations failed",
		r.Direction, r.DatasetID, len(failed), len(r.Ops))).
		WithCode(appErrors.CodePartialSync).
		WithDetails(map[string]any{
			"dataset": r.DatasetID,
			"failed":  ids,
		})
}

// IsPartialSync reports whether err marks a run with failed row operations.
func IsPartialSync(err error) bool {
	return appErrors.HasCode(err, appErrors.CodePartialSync)
}
