package query

import "context"

// Execute validates the payload, sends it and returns the decoded response
// body as is. Every call sends a new request; nothing is memoised.
func (b *Builder) Execute(ctx context.Context) (any, error) {
	var out any
	if err := b.ExecuteInto(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExecuteInto is Execute decoding the response body into dst.
func (b *Builder) ExecuteInto(ctx context.Context, dst any) error {
	p, err := b.prepare()
	if err != nil {
		return err
	}
	return b.client.send(ctx, p, dst)
}

// prepare snapshots the builder so later chain calls cannot race a request
// already in flight.
func (b *Builder) prepare() (Payload, error) {
	if b.err != nil {
		return Payload{}, b.err
	}
	p := b.Payload()
	if err := p.Validate(); err != nil {
		return Payload{}, err
	}
	return p, nil
}

// Go starts the request in the background and returns its Future.
func (b *Builder) Go(ctx context.Context) *Future {
	p, err := b.prepare()
	if err != nil {
		return rejected(err)
	}
	c := b.client
	return spawn(func() (any, error) {
		var out any
		if err := c.send(ctx, p, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// Then resolves the builder and routes the outcome to onFulfilled or
// onRejected. Like Catch and Finally it sends its own request.
func (b *Builder) Then(ctx context.Context, onFulfilled func(any) (any, error), onRejected func(error) (any, error)) *Future {
	return b.Go(ctx).Then(onFulfilled, onRejected)
}

// Catch resolves the builder and routes only failures to onRejected.
func (b *Builder) Catch(ctx context.Context, onRejected func(error) (any, error)) *Future {
	return b.Go(ctx).Catch(onRejected)
}

// Finally resolves the builder and runs fn whatever the outcome.
func (b *Builder) Finally(ctx context.Context, fn func()) *Future {
	return b.Go(ctx).Finally(fn)
}
