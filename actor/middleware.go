package actor

// Middleware wraps the terminal delivery function, running its own logic
// before and/or after calling next — pre-middleware logic runs in chain
// order, post-middleware logic (whatever a middleware does after calling
// next) unwinds in reverse, matching spec.md §4.5 step 4.
type Middleware func(next func(inboundEnvelope)) func(inboundEnvelope)

// middlewarePipeline chains an ordered list of Middleware around a dispatch
// invocation.
type middlewarePipeline struct {
	chain []Middleware
}

// newMiddlewarePipeline builds a pipeline from chain, applied in order on
// the way in and (by construction, since each wraps the next) in reverse on
// the way out.
func newMiddlewarePipeline(chain ...Middleware) *middlewarePipeline {
	return &middlewarePipeline{chain: chain}
}

// run invokes terminal, wrapped by every middleware in order.
func (p *middlewarePipeline) run(envelope inboundEnvelope, terminal func(inboundEnvelope)) {
	invoke := terminal
	for i := len(p.chain) - 1; i >= 0; i-- {
		invoke = p.chain[i](invoke)
	}
	invoke(envelope)
}
