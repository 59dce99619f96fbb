package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frederic-klein/pluginver/internal/plugin"
)

func TestParser_Parse(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{
			name:  "empty",
			value: "",
			want:  nil,
		},
		{
			name:  "json array",
			value: `["apoc", "graph-data-science"]`,
			want:  []string{"apoc", "graph-data-science"},
		},
		{
			name:  "comma separated",
			value: "apoc, bloom ,n10s",
			want:  []string{"apoc", "bloom", "n10s"},
		},
		{
			name:  "aliases",
			value: `["apoc-core", "gds", "neosemantics"]`,
			want:  []string{"apoc", "graph-data-science", "n10s"},
		},
		{
			name:  "duplicates keep first position",
			value: `["bloom", "APOC", "gds", "apoc", "graph-data-science"]`,
			want:  []string{"bloom", "apoc", "graph-data-science"},
		},
		{
			name:  "blank entries skipped",
			value: "apoc,,  ,bloom",
			want:  []string{"apoc", "bloom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewParser()

			reqs, err := parser.Parse(tt.value)

			require.NoError(t, err)
			var got []string
			for _, r := range reqs {
				got = append(got, r.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParser_Parse_Invalid(t *testing.T) {
	inputs := []string{
		`["apoc"`,
		`[1, 2]`,
		"apoc;bloom",
		`["../etc/passwd"]`,
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := NewParser().Parse(input)
			assert.Error(t, err)
		})
	}
}

func TestParser_Parse_Requests(t *testing.T) {
	reqs, err := NewParser().Parse(`["apoc"]`)
	require.NoError(t, err)
	assert.Equal(t, []plugin.Request{{ID: "apoc"}}, reqs)
}
