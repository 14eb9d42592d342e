package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.elastic.co/apm"
	"go.elastic.co/apm/apmtest"
)

type ctxKey string

func Test_tracerImpl_BackgroundTx(t *testing.T) {
	recorder := apmtest.NewRecordingTracer()
	defer recorder.Close()
	tracer := &tracerImpl{getApmTracer: func() *apm.Tracer {
		return recorder.Tracer
	}}
	parent := context.WithValue(context.Background(), ctxKey("k"), "v")

	tx := tracer.BackgroundTx(parent, "scan")
	tx.SetResult("exhausted")
	assert.Equal(t, "v", tx.Context().Value(ctxKey("k")))
	assert.NotNil(t, apm.TransactionFromContext(tx.Context()))
	tx.End()

	recorder.Flush(nil)
	payloads := recorder.Payloads()
	if assert.Len(t, payloads.Transactions, 1) {
		assert.Equal(t, "scan", payloads.Transactions[0].Name)
		assert.Equal(t, "backgroundjob", payloads.Transactions[0].Type)
		assert.Equal(t, "exhausted", payloads.Transactions[0].Result)
	}
}

func TestNoopTracer_BackgroundTx(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	tx := NoopTracer{}.BackgroundTx(parent, "noop")
	cancel()
	assert.Error(t, tx.Context().Err())
	assert.NotPanics(t, func() {
		tx.SetResult("x")
		tx.End()
	})
}
