package qpu

import (
	"context"
	"fmt"

	"github.com/oqtopus-team/oqtopus-qir/core"
	"github.com/oqtopus-team/oqtopus-qir/ir"
	"github.com/oqtopus-team/oqtopus-qir/qerr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("github.com/oqtopus-team/oqtopus-qir/qpu")

// RunCircuits runs every circuit on b, at most parallelism at a time when
// parallelism is positive. The registers are returned in circuit order.
// The first failure cancels the remaining runs and is returned as a
// BackendExecutionError. numberQubits 0 lets each circuit declare its own
// qubit count.
func RunCircuits(ctx context.Context, b core.Backend, circuits []*ir.Circuit, numberQubits, parallelism int) ([]*core.Registers, error) {
	ctx, span := tracer.Start(ctx, "qpu.RunCircuits")
	defer span.End()
	span.SetAttributes(attribute.Int("qir.circuits", len(circuits)))

	outputs := make([]*core.Registers, len(circuits))
	g, gctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for i, c := range circuits {
		i, c := i, c
		g.Go(func() error {
			n := numberQubits
			if n <= 0 {
				n = c.NumberOfQubits()
			}
			regs, err := b.Run(gctx, c, n)
			if err != nil {
				zap.L().Error(fmt.Sprintf("failed to run circuit(%d)/reason:%s", i, err))
				return &qerr.BackendExecutionError{Circuit: i, Err: err}
			}
			outputs[i] = regs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return outputs, nil
}
