// internal/paramid/path_test.go
package paramid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath_String(t *testing.T) {
	testCases := []struct {
		name        string
		path        Path
		expectedStr string
	}{
		{
			name:        "simple path",
			path:        Path{NewSegment("net"), NewSegment("units")},
			expectedStr: "net:units",
		},
		{
			name:        "path with indices",
			path:        Path{NewSegment("net"), NewIndexedSegment("repeat", 2), NewSegment("filters")},
			expectedStr: "net:repeat[2]:filters",
		},
		{
			name:        "root path",
			path:        Path{},
			expectedStr: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expectedStr, tc.path.String())
		})
	}
}

func TestPath_RoundTrip(t *testing.T) {
	names := []string{
		"a:b:c",
		"train_model:conv_layers:repeat[0]:filters",
		"learning_rate",
		"list:item[15]",
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			path, err := Parse(name)
			require.NoError(t, err)
			assert.Equal(t, name, path.String())

			again, err := Parse(path.String())
			require.NoError(t, err)
			assert.True(t, path.Equal(again))
		})
	}
}

func TestPath_ChildDoesNotAlias(t *testing.T) {
	base := make(Path, 0, 4)
	base = append(base, NewSegment("root"))

	left := base.Child(NewSegment("left"))
	right := base.Child(NewSegment("right"))

	assert.Equal(t, "root:left", left.String())
	assert.Equal(t, "root:right", right.String())
	assert.Equal(t, "root", base.String())
}

func TestParse_Errors(t *testing.T) {
	for _, raw := range []string{"a::b", "a:b[x]", "a:-:c", "..", "a:b[1"} {
		t.Run(raw, func(t *testing.T) {
			_, err := Parse(raw)
			require.Error(t, err)
		})
	}
}

func TestValidateSegment(t *testing.T) {
	assert.NoError(t, ValidateSegment(NewSegment("units")))
	assert.NoError(t, ValidateSegment(NewIndexedSegment("item", 0)))
	assert.Error(t, ValidateSegment(NewSegment("")))
	assert.Error(t, ValidateSegment(NewSegment("a:b")))
	assert.Error(t, ValidateSegment(NewSegment("..")))
	assert.Error(t, ValidateSegment(Segment{Name: "x", Index: -3}))
}
