//go:build (darwin && (amd64 || arm64)) || (freebsd && (386 || amd64 || arm || arm64)) || (linux && (386 || amd64 || arm || arm64 || ppc64le || riscv64 || s390x)) || (netbsd && amd64) || (openbsd && (amd64 || arm64)) || (windows && (amd64 || arm64))

package adapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsStatement(t *testing.T) {
	testCases := []struct {
		query string
		want  bool
	}{
		{"SELECT * FROM t", false},
		{"  select 1", false},
		{"INSERT INTO t VALUES (1)", true},
		{"update t set a = 1", true},
		{"DELETE FROM t", true},
		{"CREATE TABLE t (a int)", true},
		{"DROP TABLE t", true},
		{"", false},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, isStatement(tc.query), tc.query)
	}
}
