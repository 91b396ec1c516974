package core

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type (
	// Adapter is an object which allows to connect to a database via url
	Adapter interface {
		Connect(url string) (Driver, error)
	}

	// Driver is an interface for a specific database driver
	Driver interface {
		Query(context.Context, string) (ResultStream, error)
		Structure() ([]*Structure, error)
		Close()
	}

	// ParamDriver is an optional interface for drivers that support
	// server-side binding of named query parameters.
	ParamDriver interface {
		QueryParams(ctx context.Context, query string, params []Parameter) (ResultStream, error)
	}
)

type ConnectionID string

type Connection struct {
	params           *ConnectionParams
	unexpandedParams *ConnectionParams

	driver Driver
}

func (c *Connection) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.params)
}

func NewConnection(params *ConnectionParams, adapter Adapter) (*Connection, error) {
	expanded := params.Expand()

	if expanded.ID == "" {
		expanded.ID = ConnectionID(uuid.New().String())
	}

	driver, err := adapter.Connect(expanded.URL)
	if err != nil {
		return nil, fmt.Errorf("adapter.Connect: %w", err)
	}

	c := &Connection{
		params:           expanded,
		unexpandedParams: params,

		driver: driver,
	}

	return c, nil
}

func (c *Connection) GetID() ConnectionID {
	return c.params.ID
}

func (c *Connection) GetName() string {
	return c.params.Name
}

func (c *Connection) GetType() string {
	return c.params.Type
}

func (c *Connection) GetURL() string {
	return c.params.URL
}

// GetParams returns the original source for this connection
func (c *Connection) GetParams() *ConnectionParams {
	return c.unexpandedParams
}

// Execute submits a literal query verbatim and returns the in-flight call.
func (c *Connection) Execute(query string, onEvent func(CallState, *Call)) *Call {
	exec := func(ctx context.Context) (ResultStream, error) {
		return c.driver.Query(ctx, query)
	}

	return newCallFromExecutor(exec, query, nil, onEvent)
}

// ExecuteParams submits a query template with named parameters. The template
// is validated against the parameter list before anything is sent to the
// driver; values are bound by name, never interpolated into the query text.
func (c *Connection) ExecuteParams(template string, params []Parameter, onEvent func(CallState, *Call)) (*Call, error) {
	if err := ValidateParameters(template, params); err != nil {
		return nil, err
	}

	driver, ok := c.driver.(ParamDriver)
	if !ok {
		return nil, ErrParamsNotSupported
	}

	exec := func(ctx context.Context) (ResultStream, error) {
		return driver.QueryParams(ctx, template, params)
	}

	return newCallFromExecutor(exec, template, params, onEvent), nil
}

func (c *Connection) GetStructure() ([]*Structure, error) {
	structure, err := c.driver.Structure()
	if err != nil {
		return nil, err
	}

	// fallback to not confuse users
	if len(structure) < 1 {
		structure = []*Structure{
			{
				Name: "no schema to show",
				Type: StructureTypeNone,
			},
		}
	}
	return structure, nil
}

func (c *Connection) Close() {
	c.driver.Close()
}
