package filter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var authors = []string{"Albert Einstein", "Mark Twain", "Oscar Wilde", "albert camus", ""}

func identity(s string) string { return s }

func TestChainAccept(t *testing.T) {
	tests := []struct {
		name     string
		rules    []Rule
		expected []string
	}{
		{
			name:     "No rules, default include everything",
			rules:    nil,
			expected: authors,
		},
		{
			name:     "Include with empty pattern admits everything",
			rules:    []Rule{{Apply: true, Regex: ""}},
			expected: authors,
		},
		{
			name:     "Exclude with empty pattern rejects everything",
			rules:    []Rule{{Apply: false, Regex: ""}},
			expected: []string{},
		},
		{
			name:     "Include is case-insensitive",
			rules:    []Rule{{Apply: true, Regex: "^ALBERT"}},
			expected: []string{"Albert Einstein", "albert camus"},
		},
		{
			name:     "Exclude matching",
			rules:    []Rule{{Apply: false, Regex: "twain"}},
			expected: []string{"Albert Einstein", "Oscar Wilde", "albert camus", ""},
		},
		{
			name: "Include then exclude",
			rules: []Rule{
				{Apply: true, Regex: "^albert"},
				{Apply: false, Regex: "camus"},
			},
			expected: []string{"Albert Einstein"},
		},
		{
			name: "Exclude with empty pattern after include still rejects everything",
			rules: []Rule{
				{Apply: true, Regex: "wilde"},
				{Apply: false, Regex: ""},
			},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain, err := NewChain(tt.rules)
			require.NoError(t, err)
			require.Equal(t, tt.expected, Apply(chain, authors, identity))
		})
	}
}

func TestChainShortCircuit(t *testing.T) {
	// the second rule would accept the value, but the first one already rejected it
	chain, err := NewChain([]Rule{
		{Apply: false, Regex: "twain"},
		{Apply: true, Regex: "twain"},
	})
	require.NoError(t, err)
	require.False(t, chain.Accept("Mark Twain"))
}

func TestApplyIsIdempotent(t *testing.T) {
	chain, err := NewChain([]Rule{{Apply: true, Regex: "a"}, {Apply: false, Regex: "wilde"}})
	require.NoError(t, err)

	once := Apply(chain, authors, identity)
	twice := Apply(chain, once, identity)
	require.Equal(t, once, twice)
}

func TestApplyPreservesOrder(t *testing.T) {
	chain, err := NewChain(nil)
	require.NoError(t, err)

	input := []string{"c", "a", "b", "a"}
	require.Equal(t, input, Apply(chain, input, identity))
}

func TestNewChainInvalidPattern(t *testing.T) {
	_, err := NewChain([]Rule{{Apply: true, Regex: "ok"}, {Apply: true, Regex: "(unclosed"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "rule 1")
}

func TestCompileCache(t *testing.T) {
	a, err := Rule{Regex: "^cached$"}.Compile()
	require.NoError(t, err)
	b, err := Rule{Regex: "^cached$"}.Compile()
	require.NoError(t, err)
	require.Same(t, a, b)

	empty, err := Rule{}.Compile()
	require.NoError(t, err)
	require.Nil(t, empty)
}

func TestRuleDecodingDefaults(t *testing.T) {
	var fromJSON []Rule
	require.NoError(t, json.Unmarshal([]byte(`[{"regex":"a"},{"apply":false,"regex":"b"}]`), &fromJSON))
	require.Equal(t, []Rule{{Apply: true, Regex: "a"}, {Apply: false, Regex: "b"}}, fromJSON)

	var fromYAML []Rule
	require.NoError(t, yaml.Unmarshal([]byte("- regex: a\n- apply: false\n  regex: b\n"), &fromYAML))
	require.Equal(t, []Rule{{Apply: true, Regex: "a"}, {Apply: false, Regex: "b"}}, fromYAML)
}
