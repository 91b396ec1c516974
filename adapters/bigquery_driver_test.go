package adapters

import (
	"testing"

	"cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bqexplore/core"
)

func TestBigqueryParameters(t *testing.T) {
	params := []core.Parameter{
		core.NewStringParameter("state", "TX"),
		core.NewStringParameter("name_prefix", "Jo%"),
		core.NewInt64Parameter("limit", 10),
	}

	got, err := bigqueryParameters(params)
	require.NoError(t, err)

	want := []bigquery.QueryParameter{
		{Name: "state", Value: "TX"},
		{Name: "name_prefix", Value: "Jo%"},
		{Name: "limit", Value: int64(10)},
	}
	assert.Equal(t, want, got)
}

func TestBigqueryParameters_InvalidValue(t *testing.T) {
	_, err := bigqueryParameters([]core.Parameter{
		{Name: "limit", Type: core.ParameterInt64, Value: "ten"},
	})
	assert.Error(t, err)
}

func TestBuildHeader_FlattensRecords(t *testing.T) {
	schema := bigquery.Schema{
		{Name: "name", Type: bigquery.StringFieldType},
		{
			Name: "location",
			Type: bigquery.RecordFieldType,
			Schema: bigquery.Schema{
				{Name: "state", Type: bigquery.StringFieldType},
				{Name: "county", Type: bigquery.StringFieldType},
			},
		},
		{Name: "total_count", Type: bigquery.IntegerFieldType},
	}

	got := buildHeader("", schema)
	assert.Equal(t, core.Header{"name", "state", "county", "total_count"}, got)
}

func TestMux(t *testing.T) {
	mux := new(Mux)

	_, err := mux.GetAdapter("bigquery")
	assert.NoError(t, err)

	_, err = mux.GetAdapter("oracle")
	assert.ErrorIs(t, err, ErrUnsupportedTypeAlias)
}
