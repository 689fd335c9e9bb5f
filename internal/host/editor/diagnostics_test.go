package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/reloader/internal/events"
)

func TestParseBuildOutput(t *testing.T) {
	output := "go: downloading example.com/dep v1.0.0\n" +
		"# example.com/game/player\n" +
		"./player.go:12:4: undefined: speed\n" +
		"./player.go:20:2: cannot use x (variable of type int) as string value in assignment\n" +
		"\thave (int)\n" +
		"# example.com/game/native\n" +
		"native.c:3:9: warning: implicit declaration of function 'foo'\n" +
		"native.c:3:9: note: include the header\n"

	units, logs := ParseBuildOutput(output)

	require.Len(t, units, 2)
	assert.Equal(t, "example.com/game/player", units[0].Unit)
	require.Len(t, units[0].Diagnostics, 2)
	assert.Equal(t, events.Diagnostic{
		Severity: events.SeverityError,
		Message:  "undefined: speed",
		File:     "player.go",
		Line:     12,
		Column:   4,
	}, units[0].Diagnostics[0])
	assert.Contains(t, units[0].Diagnostics[1].Message, "have (int)")

	assert.Equal(t, "example.com/game/native", units[1].Unit)
	require.Len(t, units[1].Diagnostics, 2)
	assert.Equal(t, events.SeverityWarning, units[1].Diagnostics[0].Severity)
	assert.Equal(t, "implicit declaration of function 'foo'", units[1].Diagnostics[0].Message)
	assert.Equal(t, events.SeverityInfo, units[1].Diagnostics[1].Severity)

	assert.Equal(t, []string{"go: downloading example.com/dep v1.0.0"}, logs)
	assert.True(t, hasErrors(units))
}

func TestParseBuildOutputWithoutHeader(t *testing.T) {
	units, logs := ParseBuildOutput("main.go:5: syntax error: unexpected }\r\n")

	require.Len(t, units, 1)
	assert.Equal(t, "", units[0].Unit)
	require.Len(t, units[0].Diagnostics, 1)
	assert.Equal(t, 5, units[0].Diagnostics[0].Line)
	assert.Equal(t, 0, units[0].Diagnostics[0].Column)
	assert.Empty(t, logs)
}

func TestParseBuildOutputClean(t *testing.T) {
	units, logs := ParseBuildOutput("")
	assert.Empty(t, units)
	assert.Empty(t, logs)
	assert.False(t, hasErrors(units))
}
