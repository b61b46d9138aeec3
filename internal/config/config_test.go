package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rua-build/rua/internal/config"
	"github.com/rua-build/rua/internal/testutil"
)

func TestReadUserIgnoreListMissingFileIsEmpty(t *testing.T) {
	p := testutil.NewPaths(t)

	set, err := p.ReadUserIgnoreList()
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestReadUserIgnoreListParsesCommentsAndBlanks(t *testing.T) {
	p := testutil.NewPaths(t)
	testutil.WriteIgnoreFile(t, p, "foo", "", "# a comment", "bar")

	set, err := p.ReadUserIgnoreList()
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"foo": true, "bar": true}, set)
}

func TestLockRejectsSecondHolder(t *testing.T) {
	p := testutil.NewPaths(t)

	first, err := p.Lock()
	require.NoError(t, err)
	defer first.Release()

	_, err = p.Lock()
	require.Error(t, err)
}

func TestLockReleasedAllowsReacquire(t *testing.T) {
	p := testutil.NewPaths(t)

	first, err := p.Lock()
	require.NoError(t, err)
	require.NoError(t, first.Release())

	second, err := p.Lock()
	require.NoError(t, err)
	defer second.Release()
}

func TestAPITimeoutDefault(t *testing.T) {
	t.Setenv(config.EnvAPITimeout, "")
	assert.Equal(t, config.DefaultAPITimeout, config.APITimeout())
}

func TestAPITimeoutClampsLowValue(t *testing.T) {
	t.Setenv(config.EnvAPITimeout, "1ms")
	assert.GreaterOrEqual(t, config.APITimeout().Milliseconds(), int64(1000))
}
