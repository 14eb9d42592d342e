package tracing

import "context"

// Transaction is a traced unit of background work
type Transaction interface {
	// Context carries the transaction and whatever the parent context carried
	Context() context.Context
	SetResult(result string)
	End()
}

type Tracer interface {
	BackgroundTx(parent context.Context, name string) Transaction
}
