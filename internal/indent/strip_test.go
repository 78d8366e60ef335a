package indent

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripEmpty(t *testing.T) {
	require.Equal(t, "", Strip(""))
}

func TestStripNoIndentationSingleLine(t *testing.T) {
	require.Equal(t, "pass", Strip("pass"))
}

func TestStripNoIndentationMultiline(t *testing.T) {
	code := "\nimport math\n\ndef main():\n    if True:\n        pass\n"
	require.Equal(t, code, Strip(code))
}

func TestStripIndentationSpaces(t *testing.T) {
	indented := "\n        # :<\n    import math\n\n    def main():\n        if True:\n          pass\n"
	want := "\n    # :<\nimport math\n\ndef main():\n    if True:\n      pass\n"
	require.Equal(t, want, Strip(indented))
}

func TestStripIndentationTabs(t *testing.T) {
	indented := "\n\n\timport math\n\n\tdef main():\n\t\tif True:\n\t\t\tpass\n\t\tif False:\n\t\t  pass\n"
	want := "\n\nimport math\n\ndef main():\n\tif True:\n\t\tpass\n\tif False:\n\t  pass\n"
	require.Equal(t, want, Strip(indented))
}

// Idempotence is an invariant any config-embedded-script de-indenter
// needs: stripping already-stripped code must be a no-op.
func TestStripIsIdempotent(t *testing.T) {
	indented := "\n        # :<\n    import math\n\n    def main():\n        if True:\n          pass\n"
	once := Strip(indented)
	twice := Strip(once)
	require.Equal(t, once, twice)
}
