package ruleset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDoc() Document {
	return Document{
		Patterns: map[string][]string{
			"A": {"cat"},
			"B": {"dog"},
		},
		Order:    []string{"A", "B"},
		MacroMap: map[string]string{"A": "MACRO_A", "B": "MACRO_B"},
	}
}

func TestCompile_Minimal(t *testing.T) {
	rs, err := Compile(testDoc())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, rs.Groups())
	assert.Equal(t, "MACRO_A", rs.Macro("A"))
	assert.Equal(t, SentinelMacro, rs.Macro("UNKNOWN"))
}

func TestCompile_Errors(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Document)
		wantErr string
	}{
		{
			"empty patterns",
			func(d *Document) { d.Patterns = nil },
			"patterns is empty",
		},
		{
			"empty order",
			func(d *Document) { d.Order = nil },
			"order is empty",
		},
		{
			"empty macro map",
			func(d *Document) { d.MacroMap = nil },
			"macro_map is empty",
		},
		{
			"order entry without patterns",
			func(d *Document) { d.Order = append(d.Order, "C") },
			`group "C" with no patterns`,
		},
		{
			"group without macro",
			func(d *Document) { delete(d.MacroMap, "B") },
			`group "B" has no macro_map entry`,
		},
		{
			"duplicate order entry",
			func(d *Document) { d.Order = []string{"A", "A"} },
			`group "A" listed twice`,
		},
		{
			"invalid pattern",
			func(d *Document) { d.Patterns["A"] = []string{"("} },
			`group "A" pattern`,
		},
		{
			"violent set references unknown group",
			func(d *Document) { d.ViolentSet = []string{"Z"} },
			`unknown group "Z"`,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			doc := testDoc()
			c.mutate(&doc)
			_, err := Compile(doc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.wantErr)
		})
	}
}

func TestClassify_FirstMatchWins(t *testing.T) {
	rs, err := Compile(testDoc())
	require.NoError(t, err)

	// Both groups match; precedence order decides.
	c := rs.Classify("a cat chased a dog")
	assert.Equal(t, "A", c.Group)
	assert.Equal(t, "MACRO_A", c.Macro)

	c = rs.Classify("just a dog")
	assert.Equal(t, "B", c.Group)
}

func TestClassify_Sentinel(t *testing.T) {
	rs, err := Compile(testDoc())
	require.NoError(t, err)

	for _, text := range []string{"a bird", "", "   "} {
		c := rs.Classify(text)
		assert.Equal(t, SentinelGroup, c.Group, "text %q", text)
		assert.Equal(t, SentinelMacro, c.Macro, "text %q", text)
		assert.False(t, c.Violent)
	}
}

func TestClassify_NormalizedInput(t *testing.T) {
	doc := testDoc()
	doc.Patterns["A"] = []string{"ROBO A TRANSEUNTE"}
	rs, err := Compile(doc)
	require.NoError(t, err)

	c := rs.Classify("  robo   a  transeúnte con violencia ")
	assert.Equal(t, "A", c.Group)
}

func TestClassify_ViolentSet(t *testing.T) {
	doc := testDoc()
	doc.ViolentSet = []string{"A"}
	rs, err := Compile(doc)
	require.NoError(t, err)

	assert.True(t, rs.Classify("cat").Violent)
	assert.False(t, rs.Classify("dog").Violent)
	assert.True(t, rs.Violent("A"))
	assert.False(t, rs.Violent("B"))
}

func TestClassify_PassengerFlag(t *testing.T) {
	doc := testDoc()
	doc.Patterns["PAX"] = []string{"PASAJERO"}
	doc.Order = append(doc.Order, "PAX")
	doc.MacroMap["PAX"] = "MACRO_PAX"
	doc.PassengerGroup = "PAX"
	rs, err := Compile(doc)
	require.NoError(t, err)

	// Direct group assignment sets the flag.
	assert.True(t, rs.Classify("robo a pasajero").PassengerRobbery)
	// A higher-precedence group can win the group slot while the passenger
	// pattern still matches the text.
	assert.True(t, rs.Classify("cat contra pasajero").PassengerRobbery)
	assert.False(t, rs.Classify("cat").PassengerRobbery)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	doc := `patterns:
  A: ["cat"]
  B: ["dog"]
order: [A, B]
macro_map:
  A: MACRO_A
  B: MACRO_B
violent_set: [A]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	rs, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, SourceExternal, rs.Source())
	assert.True(t, rs.Classify("cat").Violent)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEmbedded_CompilesAndClassifies(t *testing.T) {
	rs := Embedded()
	assert.Equal(t, SourceEmbedded, rs.Source())
	assert.NotEmpty(t, rs.Groups())

	c := rs.Classify("ROBO A TRANSEUNTE EN VIA PUBLICA CON VIOLENCIA")
	assert.Equal(t, "ROBO_TRANSEUNTE", c.Group)
	assert.Equal(t, "ROBO_PERSONA", c.Macro)
	assert.True(t, c.Violent)

	c = rs.Classify("HOMICIDIO DOLOSO")
	assert.Equal(t, "HOMICIDIO", c.Group)
	assert.Equal(t, "VIOLENCIA_LETAL", c.Macro)
}
