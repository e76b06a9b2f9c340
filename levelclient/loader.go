package levelclient

import (
	"context"
	"time"

	"github.com/milk9111/slingshot/levels"
	"github.com/milk9111/slingshot/levelstore"
)

// Result is a completed background operation.
type Result struct {
	Op  levelstore.Op
	ID  string
	Doc levels.Document
	// IDs is set by list operations.
	IDs []string
	Err error
}

const (
	OpRead levelstore.Op = "read"
	OpList levelstore.Op = "list"
)

// Loader runs store calls off the frame loop and hands the results back
// through Poll. Requests cannot be cancelled; when two loads overlap the one
// that finishes last is applied last.
type Loader struct {
	store   levelstore.Store
	timeout time.Duration
	results chan Result
}

func NewLoader(store levelstore.Store) *Loader {
	return &Loader{
		store:   store,
		timeout: 10 * time.Second,
		results: make(chan Result, 8),
	}
}

func (l *Loader) Load(id string) {
	l.run(func(ctx context.Context) Result {
		doc, err := l.store.Read(ctx, id)
		return Result{Op: OpRead, ID: id, Doc: doc, Err: err}
	})
}

func (l *Loader) Save(id string, doc levels.Document) {
	l.run(func(ctx context.Context) Result {
		return Result{Op: levelstore.OpWrite, ID: id, Doc: doc, Err: l.store.Write(ctx, id, doc)}
	})
}

func (l *Loader) Delete(id string) {
	l.run(func(ctx context.Context) Result {
		return Result{Op: levelstore.OpDelete, ID: id, Err: l.store.Delete(ctx, id)}
	})
}

func (l *Loader) List() {
	l.run(func(ctx context.Context) Result {
		ids, err := l.store.List(ctx)
		return Result{Op: OpList, IDs: ids, Err: err}
	})
}

func (l *Loader) run(fn func(ctx context.Context) Result) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		defer cancel()
		l.results <- fn(ctx)
	}()
}

// Poll returns a finished result without blocking.
func (l *Loader) Poll() (Result, bool) {
	select {
	case r := <-l.results:
		return r, true
	default:
		return Result{}, false
	}
}
