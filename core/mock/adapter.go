package mock

import (
	"context"
	"fmt"
	"sync"

	"bqexplore/core"
)

var (
	_ core.Driver      = (*driver)(nil)
	_ core.ParamDriver = (*driver)(nil)
)

type driver struct {
	data   []core.Row
	config *adapterConfig

	mu         sync.Mutex
	boundCalls [][]core.Parameter
}

func (d *driver) Query(ctx context.Context, query string) (core.ResultStream, error) {
	eff, ok := d.config.querySideEffects[query]
	if ok {
		err := eff(ctx)
		if err != nil {
			return nil, fmt.Errorf("side effect error: %w", err)
		}
	}

	return NewResultStream(d.data, d.config.resultStreamOptions...), nil
}

func (d *driver) QueryParams(ctx context.Context, query string, params []core.Parameter) (core.ResultStream, error) {
	d.mu.Lock()
	d.boundCalls = append(d.boundCalls, params)
	d.mu.Unlock()

	return d.Query(ctx, query)
}

func (d *driver) Structure() ([]*core.Structure, error) {
	var structure []*core.Structure

	for _, table := range d.config.tables {
		structure = append(structure, &core.Structure{
			Name: table,
			Type: core.StructureTypeTable,
		})
	}

	return structure, nil
}

func (d *driver) Close() {}

var _ core.Adapter = (*Adapter)(nil)

type Adapter struct {
	data   []core.Row
	config *adapterConfig

	driver *driver
}

func NewAdapter(data []core.Row, opts ...AdapterOption) *Adapter {
	config := &adapterConfig{
		querySideEffects: make(map[string]func(context.Context) error),

		resultStreamOptions: []ResultStreamOption{},
	}
	for _, opt := range opts {
		opt(config)
	}

	return &Adapter{
		data:   data,
		config: config,
	}
}

func (a *Adapter) Connect(_ string) (core.Driver, error) {
	if a.config.connectErr != nil {
		return nil, a.config.connectErr
	}

	a.driver = &driver{
		data:   a.data,
		config: a.config,
	}
	return a.driver, nil
}

// BoundParams returns the parameter lists recorded by QueryParams, in call
// order. Useful for asserting that values were bound and not interpolated.
func (a *Adapter) BoundParams() [][]core.Parameter {
	if a.driver == nil {
		return nil
	}

	a.driver.mu.Lock()
	defer a.driver.mu.Unlock()
	return a.driver.boundCalls
}
