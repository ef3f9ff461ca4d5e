package econogix

// TransactionCompletion is a settable result/error sink for callers written
// against an asynchronous contract. The engine is synchronous, so a handle is
// always resolved before the call that received it returns; it exists purely
// as an adaptation seam, not a concurrency mechanism.
type TransactionCompletion struct {
	result   *TransactionResult
	err      error
	resolved bool
}

func NewTransactionCompletion() *TransactionCompletion {
	return &TransactionCompletion{}
}

// Resolve settles the handle with a successful result. Settling an already
// settled handle is a no-op.
func (c *TransactionCompletion) Resolve(result *TransactionResult) {
	if c.resolved {
		return
	}
	c.result = result
	c.resolved = true
}

// Reject settles the handle with an error. Settling an already settled
// handle is a no-op.
func (c *TransactionCompletion) Reject(err error) {
	if c.resolved {
		return
	}
	c.err = err
	c.resolved = true
}

// Resolved reports whether the handle has been settled.
func (c *TransactionCompletion) Resolved() bool {
	return c.resolved
}

// Result returns the settled outcome. Calling it before the handle settles
// returns ErrEngineNotReady, which cannot happen when the handle came from an
// engine call on the same goroutine.
func (c *TransactionCompletion) Result() (*TransactionResult, error) {
	if !c.resolved {
		return nil, ErrEngineNotReady
	}
	return c.result, c.err
}
