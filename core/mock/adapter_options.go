package mock

import (
	"context"
)

type adapterConfig struct {
	querySideEffects map[string]func(context.Context) error
	tables           []string
	connectErr       error

	resultStreamOptions []ResultStreamOption
}

type AdapterOption func(*adapterConfig)

func AdapterWithQuerySideEffect(query string, sideEffect func(context.Context) error) AdapterOption {
	return func(c *adapterConfig) {
		_, ok := c.querySideEffects[query]
		if ok {
			panic("side effect already registered for query: " + query)
		}

		c.querySideEffects[query] = sideEffect
	}
}

func AdapterWithTables(tables ...string) AdapterOption {
	return func(c *adapterConfig) {
		c.tables = append(c.tables, tables...)
	}
}

// AdapterWithConnectError makes Connect fail, for exercising auth failures.
func AdapterWithConnectError(err error) AdapterOption {
	return func(c *adapterConfig) {
		c.connectErr = err
	}
}

func AdapterWithResultStreamOpts(opts ...ResultStreamOption) AdapterOption {
	return func(c *adapterConfig) {
		c.resultStreamOptions = append(c.resultStreamOptions, opts...)
	}
}
