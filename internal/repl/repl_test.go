package repl

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapfs/pseudofat/fat"
)

func newFormattedVolume(t *testing.T) *fat.Volume {
	v, err := fat.OpenMemory(nil)
	require.NoError(t, err)
	require.NoError(t, v.Format(65536))
	return v
}

func TestDispatch_FormatThenMkdirThenLs(t *testing.T) {
	v, err := fat.OpenMemory(nil)
	require.NoError(t, err)

	var out, errOut bytes.Buffer
	require.NoError(t, Dispatch(v, "format 64KB", &out, &errOut))
	assert.Equal(t, "OK\n", out.String())

	out.Reset()
	require.NoError(t, Dispatch(v, "mkdir /a", &out, &errOut))
	assert.Equal(t, "OK\n", out.String())

	out.Reset()
	require.NoError(t, Dispatch(v, "ls", &out, &errOut))
	assert.Contains(t, out.String(), "a")
	assert.Contains(t, out.String(), "<DIR>")
}

func TestDispatch_UnknownCommand(t *testing.T) {
	v := newFormattedVolume(t)
	var out, errOut bytes.Buffer

	require.NoError(t, Dispatch(v, "bogus", &out, &errOut))
	assert.Contains(t, out.String(), "Unknown command: bogus")
}

func TestDispatch_ErrorTranslatesToShellMessage(t *testing.T) {
	v := newFormattedVolume(t)
	var out, errOut bytes.Buffer

	require.NoError(t, Dispatch(v, "mkdir a", &out, &errOut))
	out.Reset()
	errOut.Reset()

	require.NoError(t, Dispatch(v, "mkdir a", &out, &errOut))
	assert.Equal(t, "ERROR: DIR ALREADY EXISTS\n", errOut.String())
}

func TestDispatch_Pwd(t *testing.T) {
	v := newFormattedVolume(t)
	var out, errOut bytes.Buffer

	require.NoError(t, Dispatch(v, "pwd", &out, &errOut))
	assert.Equal(t, "/\n", out.String())
}

func TestRun_StopsOnExit(t *testing.T) {
	v := newFormattedVolume(t)
	in := strings.NewReader("pwd\nexit\nmkdir /never-run\n")
	var out, errOut bytes.Buffer

	require.NoError(t, Run(v, in, &out, &errOut))
	assert.Equal(t, "/\n", out.String())
}

func TestRunLoad_ContinuesPastFailuresAndAggregates(t *testing.T) {
	v := newFormattedVolume(t)
	var out, errOut bytes.Buffer

	lines := []string{"mkdir /a", "mkdir /a", "mkdir /b"}
	err := RunLoad(v, lines, &out, &errOut)

	require.Error(t, err, "one of the three commands failed and must surface in the aggregate")
	assert.True(t, strings.HasSuffix(out.String(), "OK\n"))

	entries, lsErr := v.Ls("")
	require.NoError(t, lsErr)
	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name] = true
	}
	assert.True(t, names["a"])
	assert.True(t, names["b"])
}
