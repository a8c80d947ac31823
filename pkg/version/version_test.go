package version_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/docgap/pkg/version"
)

func TestString(t *testing.T) {
	t.Parallel()

	out := version.String()

	assert.True(t, strings.HasPrefix(out, "docgap "+version.Version+" (commit "))
	assert.Contains(t, out, "built "+version.Date)
}
