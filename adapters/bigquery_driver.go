package adapters

import (
	"context"
	"errors"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"bqexplore/core"
	"bqexplore/core/builders"
)

var (
	_ core.Driver      = (*bigQueryDriver)(nil)
	_ core.ParamDriver = (*bigQueryDriver)(nil)
)

type bigQueryDriver struct {
	c                 *bigquery.Client
	location          string
	maxBytesBilled    int64
	disableQueryCache bool
	useLegacySQL      bool
}

func (c *bigQueryDriver) Query(ctx context.Context, queryStr string) (core.ResultStream, error) {
	return c.run(ctx, queryStr, nil)
}

// QueryParams binds the named parameters server-side. The values never
// appear in the query text.
func (c *bigQueryDriver) QueryParams(ctx context.Context, queryStr string, params []core.Parameter) (core.ResultStream, error) {
	queryParams, err := bigqueryParameters(params)
	if err != nil {
		return nil, err
	}

	return c.run(ctx, queryStr, queryParams)
}

func (c *bigQueryDriver) run(ctx context.Context, queryStr string, params []bigquery.QueryParameter) (core.ResultStream, error) {
	query := c.c.Query(queryStr)
	query.DisableQueryCache = c.disableQueryCache
	query.MaxBytesBilled = c.maxBytesBilled
	query.UseLegacySQL = c.useLegacySQL
	query.Location = c.location
	query.Parameters = params

	iter, err := query.Read(ctx)
	if err != nil {
		return nil, err
	}

	// schema isn't available until the first call to iter.Next()
	var firstRowLoader bigqueryRowLoader
	firstRowErr := iter.Next(&firstRowLoader)
	if firstRowErr != nil && !errors.Is(firstRowErr, iterator.Done) {
		return nil, firstRowErr
	}

	header := buildHeader("", iter.Schema)

	hasNext := !errors.Is(firstRowErr, iterator.Done)
	nextFn := func() (core.Row, error) {
		if firstRowLoader.row != nil {
			row := firstRowLoader.row
			firstRowLoader.row = nil
			return row, nil
		}

		var loader bigqueryRowLoader
		if err := iter.Next(&loader); err != nil {
			if errors.Is(err, iterator.Done) {
				hasNext = false
			}

			return nil, err
		}

		return loader.row, nil
	}

	hasNextFn := func() bool {
		return hasNext
	}

	result := builders.NewResultStreamBuilder().
		WithNextFunc(nextFn, hasNextFn).
		WithHeader(header).
		Build()
	return result, nil
}

func (c *bigQueryDriver) Structure() (layouts []*core.Structure, err error) {
	ctx := context.Background()

	datasetsIter := c.c.Datasets(ctx)
	for {
		dataset, err := datasetsIter.Next()
		if err != nil {
			if !errors.Is(err, iterator.Done) {
				return nil, err
			}

			break
		}

		datasetLayout := &core.Structure{
			Name:     dataset.DatasetID,
			Schema:   dataset.DatasetID,
			Type:     core.StructureTypeDataset,
			Children: []*core.Structure{},
		}

		tablesIter := dataset.Tables(ctx)
		for {
			table, err := tablesIter.Next()
			if err != nil {
				if !errors.Is(err, iterator.Done) {
					return nil, err
				}

				break
			}

			datasetLayout.Children = append(datasetLayout.Children, &core.Structure{
				Name:   table.TableID,
				Schema: table.DatasetID,
				Type:   core.StructureTypeTable,
			})
		}

		layouts = append(layouts, datasetLayout)
	}

	return layouts, nil
}

func (c *bigQueryDriver) Close() {
	_ = c.c.Close()
}

// bigqueryParameters converts named parameters to their client library form.
func bigqueryParameters(params []core.Parameter) ([]bigquery.QueryParameter, error) {
	out := make([]bigquery.QueryParameter, 0, len(params))

	for _, p := range params {
		value, err := p.BindValue()
		if err != nil {
			return nil, err
		}

		out = append(out, bigquery.QueryParameter{
			Name:  p.Name,
			Value: value,
		})
	}

	return out, nil
}

// buildHeader flattens the result schema into a header; nested RECORD fields
// become parent.child entries.
func buildHeader(parentName string, schema bigquery.Schema) (columns core.Header) {
	for _, field := range schema {
		if field.Type == bigquery.RecordFieldType {
			nestedName := field.Name
			if parentName != "" {
				nestedName = parentName + "." + nestedName
			}
			columns = append(columns, buildHeader(nestedName, field.Schema)...)
		} else {
			columns = append(columns, field.Name)
		}
	}

	return columns
}

type bigqueryRowLoader struct {
	row core.Row
}

func (l *bigqueryRowLoader) Load(row []bigquery.Value, schema bigquery.Schema) error {
	l.row = make(core.Row, len(row))

	for i, col := range row {
		l.row[i] = col
	}

	return nil
}
