package linkresolver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ntfserrors "github.com/ntfslive/ntfslive/errors"
	"github.com/ntfslive/ntfslive/linkresolver"
	"github.com/ntfslive/ntfslive/ntfsiface"
	"github.com/ntfslive/ntfslive/ntfstest"
)

func buildJunctionFixture(t *testing.T) *ntfstest.FakeInterpreter {
	t.Helper()
	interp := ntfstest.NewFakeInterpreter(4096)
	interp.AddDir("", ntfsiface.RawStat{})
	interp.AddDir(`Documents and Settings`, ntfsiface.RawStat{})
	interp.AddReparsePoint(`Documents and Settings`, linkresolver.TagMountPoint,
		ntfstest.BuildMountPointPayload(`\??\C:\Users`))
	interp.AddDir(`Users`, ntfsiface.RawStat{})
	return interp
}

func TestLinkTargetDecodesJunction(t *testing.T) {
	interp := buildJunctionFixture(t)
	resolver := linkresolver.New(interp, "C:", "", linkresolver.Options{
		MaxLinkDepth: 10, FollowAbsoluteLinks: true,
	})

	kind, target, err := resolver.LinkTarget(`Documents and Settings`)
	require.NoError(t, err)
	assert.Equal(t, linkresolver.KindJunction, kind)
	assert.Equal(t, `C:\Users`, target)
}

func TestResolveTargetFollowsAbsoluteWhenAllowed(t *testing.T) {
	interp := buildJunctionFixture(t)
	resolver := linkresolver.New(interp, "C:", "", linkresolver.Options{
		MaxLinkDepth: 10, FollowAbsoluteLinks: true,
	})

	resolved, err := resolver.ResolveTarget(`Documents and Settings`)
	require.NoError(t, err)
	assert.Equal(t, `C:\Users`, resolved)
}

func TestResolveTargetRefusesAbsoluteWhenDisallowed(t *testing.T) {
	interp := buildJunctionFixture(t)
	resolver := linkresolver.New(interp, "C:", "", linkresolver.Options{
		MaxLinkDepth: 10, FollowAbsoluteLinks: false,
	})

	resolved, err := resolver.ResolveTarget(`Documents and Settings`)
	require.NoError(t, err)
	assert.Equal(t, `C:\Users`, resolved, "policy refusal returns the raw target, not the original path")
}

func TestResolveTargetDetectsCycle(t *testing.T) {
	interp := ntfstest.NewFakeInterpreter(4096)
	interp.AddDir("", ntfsiface.RawStat{})
	interp.AddDir("a", ntfsiface.RawStat{})
	interp.AddDir("b", ntfsiface.RawStat{})
	interp.AddReparsePoint("a", linkresolver.TagMountPoint, ntfstest.BuildMountPointPayload(`\??\C:\b`))
	interp.AddReparsePoint("b", linkresolver.TagMountPoint, ntfstest.BuildMountPointPayload(`\??\C:\a`))

	resolver := linkresolver.New(interp, "C:", "", linkresolver.Options{
		MaxLinkDepth: 10, FollowAbsoluteLinks: true,
	})

	_, err := resolver.ResolveTarget("a")
	require.Error(t, err)
	assert.True(t, ntfserrors.Is(err, ntfserrors.KindLinkRecursion))
}

func TestResolveTargetEnforcesDepthCap(t *testing.T) {
	interp := ntfstest.NewFakeInterpreter(4096)
	interp.AddDir("", ntfsiface.RawStat{})
	const chainLen = 12
	for i := 0; i < chainLen; i++ {
		name := nodeName(i)
		interp.AddDir(name, ntfsiface.RawStat{})
	}
	for i := 0; i < chainLen-1; i++ {
		interp.AddReparsePoint(nodeName(i), linkresolver.TagSymlink,
			ntfstest.BuildSymlinkPayload(`\??\C:\`+nodeName(i+1), false))
	}

	resolver := linkresolver.New(interp, "C:", "", linkresolver.Options{
		MaxLinkDepth: 10, FollowAbsoluteLinks: true,
	})

	_, err := resolver.ResolveTarget(nodeName(0))
	require.Error(t, err)
	assert.True(t, ntfserrors.Is(err, ntfserrors.KindLinkRecursion))
	assert.Contains(t, err.Error(), "depth 10",
		"spec.md §8 S6 pins the reported depth at the cap (10), not the attempted 11th hop")
}

func nodeName(i int) string {
	return string(rune('a' + i))
}
