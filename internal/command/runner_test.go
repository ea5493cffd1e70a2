package command

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/wppanel/internal/fault"
)

func TestExecRunner_Output(t *testing.T) {
	r := NewExecRunner(zerolog.Nop(), 0)
	out, err := r.Run(context.Background(), Cmd{Name: "echo", Args: []string{"hello", "world"}})
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", string(out))
}

func TestExecRunner_ArgsAreNotShellExpanded(t *testing.T) {
	r := NewExecRunner(zerolog.Nop(), 0)
	out, err := r.Run(context.Background(), Cmd{Name: "echo", Args: []string{"$HOME; rm -rf /"}})
	require.NoError(t, err)
	assert.Equal(t, "$HOME; rm -rf /\n", string(out))
}

func TestExecRunner_StdinAndStdout(t *testing.T) {
	r := NewExecRunner(zerolog.Nop(), 0)
	var buf bytes.Buffer
	_, err := r.Run(context.Background(), Cmd{Name: "cat", Stdin: strings.NewReader("dump"), Stdout: &buf})
	require.NoError(t, err)
	assert.Equal(t, "dump", buf.String())
}

func TestExecRunner_Env(t *testing.T) {
	r := NewExecRunner(zerolog.Nop(), 0)
	out, err := r.Run(context.Background(), Cmd{Name: "printenv", Args: []string{"WPPANEL_TEST"}, Env: []string{"WPPANEL_TEST=1"}})
	require.NoError(t, err)
	assert.Equal(t, "1\n", string(out))
}

func TestExecRunner_FailureCarriesOutput(t *testing.T) {
	r := NewExecRunner(zerolog.Nop(), 0)
	_, err := r.Run(context.Background(), Cmd{Name: "ls", Args: []string{"/definitely/not/here"}})
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindCommand))
	assert.Contains(t, err.Error(), "ls failed")
	assert.Contains(t, err.Error(), "/definitely/not/here")
}

func TestExecRunner_NotInstalled(t *testing.T) {
	r := NewExecRunner(zerolog.Nop(), 0)
	_, err := r.Run(context.Background(), Cmd{Name: "wppanel-no-such-binary"})
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindCommand))
	assert.Contains(t, err.Error(), "not installed")
}

func TestExecRunner_Timeout(t *testing.T) {
	r := NewExecRunner(zerolog.Nop(), 50*time.Millisecond)
	_, err := r.Run(context.Background(), Cmd{Name: "sleep", Args: []string{"5"}})
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.KindTimeout))
}

func TestCmd_String(t *testing.T) {
	assert.Equal(t, "certbot renew --quiet", Cmd{Name: "certbot", Args: []string{"renew", "--quiet"}}.String())
}
