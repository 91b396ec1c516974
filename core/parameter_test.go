package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const namesTemplate = `
	SELECT name, gender, SUM(number) as total_count
	FROM ` + "`bigquery-public-data.usa_names.usa_1910_2013`" + `
	WHERE state = @state
	AND name LIKE @name_prefix
	GROUP BY name, gender
	ORDER BY total_count DESC
	LIMIT @limit
`

func TestPlaceholders(t *testing.T) {
	testCases := []struct {
		name     string
		template string
		want     []string
	}{
		{
			name:     "no placeholders",
			template: "SELECT 1",
			want:     nil,
		},
		{
			name:     "names template",
			template: namesTemplate,
			want:     []string{"state", "name_prefix", "limit"},
		},
		{
			name:     "repeated placeholder counts once",
			template: "SELECT * FROM t WHERE a = @x OR b = @x",
			want:     []string{"x"},
		},
		{
			name:     "at sign inside single-quoted literal",
			template: "SELECT * FROM t WHERE email = 'jo@example.com' AND state = @state",
			want:     []string{"state"},
		},
		{
			name:     "at sign inside double-quoted literal",
			template: `SELECT * FROM t WHERE note = "ping @oncall" AND state = @state`,
			want:     []string{"state"},
		},
		{
			name:     "at sign inside backtick identifier",
			template: "SELECT * FROM `weird@project.ds.t` WHERE state = @state",
			want:     []string{"state"},
		},
		{
			name:     "escaped quote does not end the literal",
			template: `SELECT * FROM t WHERE v = 'it\'s @not_a_param' AND state = @state`,
			want:     []string{"state"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Placeholders(tc.template))
		})
	}
}

func TestValidateParameters(t *testing.T) {
	params := []Parameter{
		NewStringParameter("state", "TX"),
		NewStringParameter("name_prefix", "Jo%"),
		NewInt64Parameter("limit", 10),
	}

	t.Run("every placeholder bound", func(t *testing.T) {
		assert.NoError(t, ValidateParameters(namesTemplate, params))
	})

	t.Run("literal with at sign needs no binding", func(t *testing.T) {
		template := "SELECT * FROM t WHERE email = 'jo@example.com' AND state = @state"
		assert.NoError(t, ValidateParameters(template, []Parameter{NewStringParameter("state", "TX")}))
	})

	t.Run("parameter list length matches placeholders", func(t *testing.T) {
		assert.Len(t, params, len(Placeholders(namesTemplate)))
	})

	t.Run("missing binding", func(t *testing.T) {
		err := ValidateParameters(namesTemplate, params[:2])
		assert.ErrorContains(t, err, "@limit")
	})

	t.Run("extra binding", func(t *testing.T) {
		extra := append([]Parameter{}, params...)
		extra = append(extra, NewStringParameter("unused", "x"))
		err := ValidateParameters(namesTemplate, extra)
		assert.ErrorContains(t, err, "mismatch")
	})

	t.Run("duplicate binding", func(t *testing.T) {
		dup := append([]Parameter{}, params...)
		dup = append(dup, NewStringParameter("state", "CA"))
		err := ValidateParameters(namesTemplate, dup)
		assert.ErrorContains(t, err, "duplicate")
	})

	t.Run("type mismatch", func(t *testing.T) {
		bad := []Parameter{{Name: "state", Type: ParameterInt64, Value: "not-a-number"}}
		err := ValidateParameters("SELECT @state", bad)
		assert.Error(t, err)
	})
}

func TestParseParameter(t *testing.T) {
	t.Run("string", func(t *testing.T) {
		p, err := ParseParameter("state:STRING:TX")
		require.NoError(t, err)
		assert.Equal(t, NewStringParameter("state", "TX"), p)
	})

	t.Run("int64", func(t *testing.T) {
		p, err := ParseParameter("limit:INT64:10")
		require.NoError(t, err)

		v, err := p.BindValue()
		require.NoError(t, err)
		assert.Equal(t, int64(10), v)
	})

	t.Run("value may contain colons", func(t *testing.T) {
		p, err := ParseParameter("ts:STRING:12:34:56")
		require.NoError(t, err)
		assert.Equal(t, "12:34:56", p.Value)
	})

	t.Run("invalid type", func(t *testing.T) {
		_, err := ParseParameter("x:FLOAT64:1.5")
		assert.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParseParameter("just-a-string")
		assert.Error(t, err)
	})
}

func TestBindValue(t *testing.T) {
	v, err := Parameter{Name: "limit", Type: ParameterInt64, Value: 10}.BindValue()
	require.NoError(t, err)
	assert.Equal(t, int64(10), v)

	_, err = Parameter{Name: "state", Type: ParameterString, Value: 3}.BindValue()
	assert.Error(t, err)
}
