package output_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"bqexplore/core"
	"bqexplore/core/format"
	"bqexplore/core/mock"
	"bqexplore/output"
)

func TestFile_WritesCSV(t *testing.T) {
	r := require.New(t)

	result := new(core.Result)
	err := result.SetIter(mock.NewResultStream(
		[]core.Row{{"John", int64(120)}, {"Joan", int64(40)}},
		mock.ResultStreamWithHeader(core.Header{"name", "total_count"}),
	), nil)
	r.NoError(err)

	path := filepath.Join(t.TempDir(), "out.csv")
	err = output.NewFile(path, format.NewCSV(), nil).Write(result)
	r.NoError(err)

	content, err := os.ReadFile(path)
	r.NoError(err)
	r.Equal("name,total_count\nJohn,120\nJoan,40\n", string(content))
}
