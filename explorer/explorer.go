// Package explorer ties a connection, the secrets provider and the call log
// together into the query runner used by both the TUI and the one-shot CLI.
package explorer

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"bqexplore/core"
)

// AuthError means the client could not be constructed - bad secrets, bad
// credentials or an unreachable project. Queries must not be attempted after
// one is returned.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// QueryError is an execution-time failure: malformed sql, permission denied,
// timeout. It carries the underlying message for display.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %s", e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Explorer runs queries over a lazily created, process-scoped connection.
type Explorer struct {
	params  *core.ConnectionParams
	adapter core.Adapter
	logger  *zap.Logger

	// connection is created once and reused; the error is memoized too, so
	// a failed construction is not retried.
	once    sync.Once
	conn    *core.Connection
	connErr error

	mu    sync.Mutex
	calls []*core.Call
}

type Option func(*Explorer)

// WithLogger sets the logger; default is a nop logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Explorer) {
		e.logger = logger
	}
}

func New(params *core.ConnectionParams, adapter core.Adapter, opts ...Option) *Explorer {
	e := &Explorer{
		params:  params,
		adapter: adapter,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Client returns the connection handle, creating it on first use. Repeated
// calls return the identical handle (or the identical failure).
func (e *Explorer) Client() (*core.Connection, error) {
	e.once.Do(func() {
		conn, err := core.NewConnection(e.params, e.adapter)
		if err != nil {
			e.connErr = &AuthError{Err: err}
			e.logger.Error("client construction failed", zap.Error(err))
			return
		}

		e.conn = conn
		e.logger.Info("client ready",
			zap.String("type", conn.GetType()),
			zap.String("connection_id", string(conn.GetID())),
		)
	})

	return e.conn, e.connErr
}

// RunLiteral submits the query string verbatim and waits for the full result.
func (e *Explorer) RunLiteral(ctx context.Context, query string) (*core.Result, error) {
	conn, err := e.Client()
	if err != nil {
		return nil, err
	}

	return e.wait(ctx, query, conn.Execute(query, nil))
}

// RunParameterized validates the template against the parameter list and
// submits it with server-side bindings.
func (e *Explorer) RunParameterized(ctx context.Context, template string, params []core.Parameter) (*core.Result, error) {
	conn, err := e.Client()
	if err != nil {
		return nil, err
	}

	call, err := conn.ExecuteParams(template, params, nil)
	if err != nil {
		return nil, &QueryError{Query: template, Err: err}
	}

	return e.wait(ctx, template, call)
}

// Structure returns the dataset/table tree of the connection.
func (e *Explorer) Structure() ([]*core.Structure, error) {
	conn, err := e.Client()
	if err != nil {
		return nil, err
	}

	return conn.GetStructure()
}

// Calls returns the calls made in this session, oldest first.
func (e *Explorer) Calls() []*core.Call {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*core.Call, len(e.calls))
	copy(out, e.calls)
	return out
}

func (e *Explorer) Close() {
	if e.conn != nil {
		e.conn.Close()
	}
}

// wait blocks until the call finishes or the context is canceled, then
// converts the outcome to a result or a QueryError.
func (e *Explorer) wait(ctx context.Context, query string, call *core.Call) (*core.Result, error) {
	e.mu.Lock()
	e.calls = append(e.calls, call)
	e.mu.Unlock()

	select {
	case <-call.Done():
	case <-ctx.Done():
		call.Cancel()
		<-call.Done()
	}

	if err := call.Err(); err != nil {
		e.logger.Warn("query failed",
			zap.String("call_id", string(call.GetID())),
			zap.Duration("took", call.GetTimeTaken()),
			zap.Error(err),
		)
		return nil, &QueryError{Query: query, Err: err}
	}

	result, err := call.GetResult()
	if err != nil {
		return nil, &QueryError{Query: query, Err: err}
	}

	e.logger.Info("query finished",
		zap.String("call_id", string(call.GetID())),
		zap.Duration("took", call.GetTimeTaken()),
		zap.Int("rows", result.Len()),
	)

	return result, nil
}
