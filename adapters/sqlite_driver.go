//go:build (darwin && (amd64 || arm64)) || (freebsd && (386 || amd64 || arm || arm64)) || (linux && (386 || amd64 || arm || arm64 || ppc64le || riscv64 || s390x)) || (netbsd && amd64) || (openbsd && (amd64 || arm64)) || (windows && (amd64 || arm64))

package adapters

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"bqexplore/core"
	"bqexplore/core/builders"
)

var (
	_ core.Driver      = (*sqliteDriver)(nil)
	_ core.ParamDriver = (*sqliteDriver)(nil)
)

type sqliteDriver struct {
	c *builders.Client
}

// isStatement reports whether the query modifies data instead of returning
// rows, in which case only the affected row count is reported.
func isStatement(query string) bool {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return false
	}

	switch strings.ToLower(fields[0]) {
	case "insert", "update", "delete", "create", "drop", "alter", "replace":
		return true
	default:
		return false
	}
}

func (d *sqliteDriver) Query(ctx context.Context, query string) (core.ResultStream, error) {
	if isStatement(query) {
		return d.c.Exec(ctx, query)
	}
	return d.c.Query(ctx, query)
}

func (d *sqliteDriver) QueryParams(ctx context.Context, query string, params []core.Parameter) (core.ResultStream, error) {
	args := make([]any, 0, len(params))
	for _, p := range params {
		value, err := p.BindValue()
		if err != nil {
			return nil, err
		}
		args = append(args, sql.Named(p.Name, value))
	}

	if isStatement(query) {
		return d.c.Exec(ctx, query, args...)
	}
	return d.c.Query(ctx, query, args...)
}

func (d *sqliteDriver) Structure() ([]*core.Structure, error) {
	rows, err := d.Query(context.Background(), "SELECT name, type FROM sqlite_schema WHERE name NOT LIKE 'sqlite_%'")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// sqlite is single schema, so we hardcode the name of it.
	const schema = "sqlite_schema"

	var out []*core.Structure
	for rows.HasNext() {
		row, err := rows.Next()
		if err != nil {
			return nil, err
		}
		if len(row) < 2 {
			return nil, errors.New("unexpected schema query result shape")
		}

		name, _ := row[0].(string)
		typ, _ := row[1].(string)

		structureType := core.StructureTypeNone
		switch typ {
		case "table":
			structureType = core.StructureTypeTable
		case "view":
			structureType = core.StructureTypeView
		}

		out = append(out, &core.Structure{
			Name:   name,
			Schema: schema,
			Type:   structureType,
		})
	}

	return out, nil
}

func (d *sqliteDriver) Close() { d.c.Close() }
