package core_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bqexplore/core"
	"bqexplore/core/mock"
)

func TestCall_Success(t *testing.T) {
	r := require.New(t)

	rows := mock.NewRows(0, 10)

	connection, err := core.NewConnection(&core.ConnectionParams{}, mock.NewAdapter(rows,
		mock.AdapterWithResultStreamOpts(mock.ResultStreamWithNextSleep(300*time.Millisecond)),
	))
	r.NoError(err)

	expectedEvents := []core.CallState{
		core.CallStateExecuting,
		core.CallStateRetrieving,
		core.CallStateArchived,
	}

	eventIndex := 0
	call := connection.Execute("_", func(state core.CallState, c *core.Call) {
		// make sure events were in order
		r.Equal(expectedEvents[eventIndex], state)
		eventIndex++

		if state == core.CallStateRetrieving {
			result, err := c.GetResult()
			r.NoError(err)

			actualRows, err := result.Rows(0, len(rows))
			r.NoError(err)

			r.Equal(rows, actualRows)
		}
	})

	// wait for call to finish
	select {
	case <-call.Done():
		// wait a bit for event index to stabilize
		time.Sleep(100 * time.Millisecond)
	case <-time.After(5 * time.Second):
		t.Error("call did not finish in expected time")
	}

	// make sure all events passed
	r.Equal(len(expectedEvents), eventIndex)
}

func TestCall_Cancel(t *testing.T) {
	r := require.New(t)

	rows := mock.NewRows(0, 10)

	adapter := mock.NewAdapter(rows,
		mock.AdapterWithQuerySideEffect("wait", func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(10 * time.Second):
			}
			return nil
		}),
		mock.AdapterWithResultStreamOpts(mock.ResultStreamWithNextSleep(300*time.Millisecond)),
	)

	connection, err := core.NewConnection(&core.ConnectionParams{}, adapter)
	r.NoError(err)

	expectedEvents := []core.CallState{
		core.CallStateExecuting,
		core.CallStateCanceled,
	}

	eventIndex := 0
	call := connection.Execute("wait", func(state core.CallState, c *core.Call) {
		// wait for first event and cancel request
		c.Cancel()
		// make sure events were in order
		r.Equal(expectedEvents[eventIndex], state)
		eventIndex++
	})

	// wait for call to finish
	select {
	case <-call.Done():
		// wait a bit for event index to stabilize
		time.Sleep(100 * time.Millisecond)
	case <-time.After(5 * time.Second):
		t.Error("call did not finish in expected time")
	}

	// make sure all events passed
	r.Equal(len(expectedEvents), eventIndex)
}

func TestCall_CancelAfterCompletion(t *testing.T) {
	r := require.New(t)

	rows := mock.NewRows(0, 10)

	connection, err := core.NewConnection(&core.ConnectionParams{}, mock.NewAdapter(rows))
	r.NoError(err)

	call := connection.Execute("_", nil)

	// wait for call to finish
	select {
	case <-call.Done():
		time.Sleep(100 * time.Millisecond)
	case <-time.After(5 * time.Second):
		t.Error("call did not finish in expected time")
	}

	// canceling a finished call is a no-op, not a send on a closed channel
	call.Cancel()
	time.Sleep(100 * time.Millisecond)

	r.Equal(core.CallStateArchived, call.GetState())
	r.NoError(call.Err())
}

func TestCall_FailedQuery(t *testing.T) {
	r := require.New(t)

	rows := mock.NewRows(0, 10)

	adapter := mock.NewAdapter(rows,
		mock.AdapterWithQuerySideEffect("fail", func(ctx context.Context) error {
			return errors.New("query failed")
		}),
		mock.AdapterWithResultStreamOpts(mock.ResultStreamWithNextSleep(300*time.Millisecond)),
	)

	connection, err := core.NewConnection(&core.ConnectionParams{}, adapter)
	r.NoError(err)

	expectedEvents := []core.CallState{
		core.CallStateExecuting,
		core.CallStateExecutingFailed,
	}

	eventIndex := 0
	call := connection.Execute("fail", func(state core.CallState, c *core.Call) {
		// make sure events were in order
		r.Equal(expectedEvents[eventIndex], state)
		eventIndex++

		if state == core.CallStateExecutingFailed {
			r.NotNil(c.Err())
		}
	})

	// wait for call to finish
	select {
	case <-call.Done():
		// wait a bit for event index to stabilize
		time.Sleep(100 * time.Millisecond)
	case <-time.After(5 * time.Second):
		t.Error("call did not finish in expected time")
	}

	// make sure all events passed
	r.Equal(len(expectedEvents), eventIndex)
}

func TestCall_Params(t *testing.T) {
	r := require.New(t)

	rows := mock.NewRows(0, 5)
	adapter := mock.NewAdapter(rows)

	connection, err := core.NewConnection(&core.ConnectionParams{}, adapter)
	r.NoError(err)

	template := "SELECT name FROM names WHERE state = @state AND name LIKE @name_prefix LIMIT @limit"
	params := []core.Parameter{
		core.NewStringParameter("state", "TX"),
		core.NewStringParameter("name_prefix", "Jo%"),
		core.NewInt64Parameter("limit", 10),
	}

	call, err := connection.ExecuteParams(template, params, nil)
	r.NoError(err)

	select {
	case <-call.Done():
	case <-time.After(5 * time.Second):
		t.Error("call did not finish in expected time")
	}

	// the driver received every binding, in order
	bound := adapter.BoundParams()
	r.Len(bound, 1)
	r.Equal(params, bound[0])

	// bindings never end up in the query text
	r.Equal(template, call.GetQuery())
	r.Equal(params, call.GetParams())
}

func TestCall_ParamsValidation(t *testing.T) {
	r := require.New(t)

	adapter := mock.NewAdapter(mock.NewRows(0, 1))
	connection, err := core.NewConnection(&core.ConnectionParams{}, adapter)
	r.NoError(err)

	template := "SELECT * FROM names WHERE state = @state"

	// missing binding never reaches the driver
	_, err = connection.ExecuteParams(template, nil, nil)
	r.Error(err)
	r.Empty(adapter.BoundParams())
}

func TestCall_Archive(t *testing.T) {
	r := require.New(t)

	rows := mock.NewRows(0, 10)

	connection, err := core.NewConnection(&core.ConnectionParams{}, mock.NewAdapter(rows,
		mock.AdapterWithResultStreamOpts(mock.ResultStreamWithNextSleep(300*time.Millisecond)),
	))
	r.NoError(err)

	call := connection.Execute("_", nil)

	// wait for call to finish
	select {
	case <-call.Done():
		// wait a bit for event index to stabilize
		time.Sleep(100 * time.Millisecond)
	case <-time.After(5 * time.Second):
		t.Error("call did not finish in expected time")
	}

	// check result
	result, err := call.GetResult()
	r.NoError(err)
	actualRows, err := result.Rows(0, len(rows))
	r.NoError(err)
	r.Equal(rows, actualRows)

	// marshal to json
	b, err := json.Marshal(call)
	r.NoError(err)

	// marshal back
	restoredCall := new(core.Call)
	err = json.Unmarshal(b, restoredCall)
	r.NoError(err)

	// check result again
	result, err = restoredCall.GetResult()
	r.NoError(err)
	actualRows, err = result.Rows(0, len(rows))
	r.NoError(err)
	r.Equal(rows, actualRows)
}
