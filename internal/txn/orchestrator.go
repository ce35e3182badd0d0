// Package txn runs ordered multi-collection writes as one atomic unit.
package txn

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/errors"
	"github.com/RamanathanMaruthuPandiyan/Regulations-Internship-sub000/pkg/metrics"
)

// Transactor runs fn inside a storage transaction. If fn returns an error
// nothing fn wrote is visible afterwards. The ctx passed to fn must be used
// for every write that belongs to the transaction.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Kind of write an Op performs.
type Kind int

const (
	KindCreate Kind = iota
	KindUpdateMany
	KindDeleteMany
	KindCheck
)

func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "create"
	case KindUpdateMany:
		return "update"
	case KindDeleteMany:
		return "delete"
	case KindCheck:
		return "check"
	}
	return "unknown"
}

// OpResult is what one write reports back.
type OpResult struct {
	InsertedIDs []string
	Modified    int64
	Deleted     int64
}

func (r OpResult) changed() bool {
	return len(r.InsertedIDs) > 0 || r.Modified > 0 || r.Deleted > 0
}

// Op is one step of an orchestrated sequence.
type Op struct {
	Name          string
	Kind          Kind
	RequireChange bool
	run           func(ctx context.Context) (OpResult, error)
}

// Required marks the op as failing the whole sequence when it changes
// nothing.
func (o Op) Required() Op {
	o.RequireChange = true
	return o
}

// Create inserts documents and reports their ids.
func Create(name string, fn func(ctx context.Context) ([]string, error)) Op {
	return Op{Name: name, Kind: KindCreate, run: func(ctx context.Context) (OpResult, error) {
		ids, err := fn(ctx)
		return OpResult{InsertedIDs: ids}, err
	}}
}

// UpdateMany updates documents and reports the modified count.
func UpdateMany(name string, fn func(ctx context.Context) (int64, error)) Op {
	return Op{Name: name, Kind: KindUpdateMany, run: func(ctx context.Context) (OpResult, error) {
		n, err := fn(ctx)
		return OpResult{Modified: n}, err
	}}
}

// DeleteMany removes documents and reports the deleted count.
func DeleteMany(name string, fn func(ctx context.Context) (int64, error)) Op {
	return Op{Name: name, Kind: KindDeleteMany, run: func(ctx context.Context) (OpResult, error) {
		n, err := fn(ctx)
		return OpResult{Deleted: n}, err
	}}
}

// Check runs a validation against state written earlier in the sequence.
// Returning an error rolls everything back.
func Check(name string, fn func(ctx context.Context) error) Op {
	return Op{Name: name, Kind: KindCheck, run: func(ctx context.Context) (OpResult, error) {
		return OpResult{}, fn(ctx)
	}}
}

// Result aggregates every op of a committed sequence.
type Result struct {
	InsertedIDs []string
	Modified    int64
	Deleted     int64
	PerOp       map[string]OpResult
}

// Orchestrator executes op sequences through a Transactor.
type Orchestrator struct {
	tx     Transactor
	logger *zap.Logger
}

func NewOrchestrator(tx Transactor, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{tx: tx, logger: logger}
}

// Execute runs ops in order inside one transaction. The first failing op, or
// the first required op that changed nothing, aborts the transaction and its
// error is returned unchanged.
func (o *Orchestrator) Execute(ctx context.Context, ops ...Op) (Result, error) {
	start := time.Now()
	var res Result

	err := o.tx.WithTransaction(ctx, func(ctx context.Context) error {
		// WithTransaction may retry fn on transient errors; start clean.
		res = Result{PerOp: make(map[string]OpResult, len(ops))}

		for _, op := range ops {
			r, err := op.run(ctx)
			if err != nil {
				return err
			}
			if op.RequireChange && !r.changed() {
				o.logger.Debug("required op changed nothing",
					zap.String("op", op.Name), zap.Stringer("kind", op.Kind))
				return errors.ErrNoModifications
			}
			res.InsertedIDs = append(res.InsertedIDs, r.InsertedIDs...)
			res.Modified += r.Modified
			res.Deleted += r.Deleted
			res.PerOp[op.Name] = r
		}
		return nil
	})

	outcome := "committed"
	if err != nil {
		outcome = "aborted"
	}
	metrics.TransactionDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		if _, ok := errors.As(err); !ok {
			o.logger.Error("transaction failed", zap.Int("ops", len(ops)), zap.Error(err))
			return Result{}, fmt.Errorf("transaction: %w", err)
		}
		return Result{}, err
	}
	return res, nil
}
