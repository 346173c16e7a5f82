package query

import "fmt"

// Future is the pending result of a resolution.
type Future struct {
	done  chan struct{}
	value any
	err   error
}

func spawn(fn func() (any, error)) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				f.value, f.err = nil, fmt.Errorf("query: continuation panicked: %v", r)
			}
			close(f.done)
		}()
		f.value, f.err = fn()
	}()
	return f
}

func rejected(err error) *Future {
	f := &Future{done: make(chan struct{}), err: err}
	close(f.done)
	return f
}

// Done is closed once the result is available.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the result is available.
func (f *Future) Await() (any, error) {
	<-f.done
	return f.value, f.err
}

// Then chains continuations. A nil continuation passes its input through.
func (f *Future) Then(onFulfilled func(any) (any, error), onRejected func(error) (any, error)) *Future {
	return spawn(func() (any, error) {
		v, err := f.Await()
		if err != nil {
			if onRejected == nil {
				return nil, err
			}
			return onRejected(err)
		}
		if onFulfilled == nil {
			return v, nil
		}
		return onFulfilled(v)
	})
}

// Catch chains a failure-only continuation.
func (f *Future) Catch(onRejected func(error) (any, error)) *Future {
	return f.Then(nil, onRejected)
}

// Finally runs fn after the result is known and passes the result on unchanged.
func (f *Future) Finally(fn func()) *Future {
	return spawn(func() (any, error) {
		v, err := f.Await()
		if fn != nil {
			fn()
		}
		return v, err
	})
}
