package exec_test

import (
	"bufio"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boldui/core/base/exec"
)

func TestSpawnEcho(t *testing.T) {
	p, err := exec.Spawn(&exec.Config{}, "cat")
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Stdin.Write([]byte("hello\n"))
	require.NoError(t, err)
	p.Stdin.Close()

	line, err := bufio.NewReader(p.Stdout).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "hello\n", line)

	require.NoError(t, p.Wait())
}

func TestSplitCommand(t *testing.T) {
	name, args, err := exec.SplitCommand(`myapp --flag "with space"`)
	require.NoError(t, err)
	assert.Equal(t, "myapp", name)
	assert.Equal(t, []string{"--flag", "with space"}, args)
}

func TestSplitCommandEmpty(t *testing.T) {
	name, args, err := exec.SplitCommand("")
	require.NoError(t, err)
	assert.Equal(t, "", name)
	assert.Nil(t, args)
}
