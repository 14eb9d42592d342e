package tracing

import (
	"context"

	"go.elastic.co/apm"

	"github.com/lloydmeta/assetversions/internal/domain/tracing"
)

// Returns a thin wrapper around APM's tracing implementation
func NewTracer() tracing.Tracer {
	return &tracerImpl{getApmTracer: func() *apm.Tracer {
		return apm.DefaultTracer
	}}
}

type transactionsImpl struct {
	ctx   context.Context
	apmTx *apm.Transaction
}

func (t *transactionsImpl) Context() context.Context {
	return t.ctx
}

func (t *transactionsImpl) SetResult(result string) {
	t.apmTx.Result = result
}

func (t *transactionsImpl) End() {
	t.apmTx.End()
}

type tracerImpl struct {
	getApmTracer func() *apm.Tracer
}

func (t *tracerImpl) BackgroundTx(parent context.Context, name string) tracing.Transaction {
	tracer := t.getApmTracer()
	tx := tracer.StartTransaction(name, "backgroundjob")
	return &transactionsImpl{
		ctx:   apm.ContextWithTransaction(parent, tx),
		apmTx: tx,
	}
}

// <--- For testing

type noopTx struct {
	ctx context.Context
}

func (n noopTx) Context() context.Context {
	return n.ctx
}

func (n noopTx) SetResult(result string) {
}

func (n noopTx) End() {
}

type NoopTracer struct{}

func (n NoopTracer) BackgroundTx(parent context.Context, name string) tracing.Transaction {
	return noopTx{ctx: parent}
}

// For testing -->
