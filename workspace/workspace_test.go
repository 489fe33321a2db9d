package workspace_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fibanez/agentcore/workspace"
)

func TestParseRef_Disk(t *testing.T) {
	ref, err := workspace.ParseRef("/home/user/.local/share/app/pages/report")
	require.NoError(t, err)
	assert.Equal(t, workspace.KindDisk, ref.Kind())
	assert.Equal(t, "/home/user/.local/share/app/pages/report", ref.Path())
	assert.Equal(t, "/home/user/.local/share/app/pages/report", ref.String())
}

func TestParseRef_VFS(t *testing.T) {
	ref, err := workspace.ParseRef("vfs:sess-42:page-7")
	require.NoError(t, err)
	assert.Equal(t, workspace.KindVFS, ref.Kind())
	assert.Equal(t, "sess-42", ref.VFSID())
	assert.Equal(t, "page-7", ref.PageID())
	assert.Equal(t, "vfs:sess-42:page-7", ref.String())
}

func TestParseRef_VFSPageContainingColon(t *testing.T) {
	ref, err := workspace.ParseRef("vfs:sess-42:dir/page:v2")
	require.NoError(t, err)
	assert.Equal(t, "sess-42", ref.VFSID())
	assert.Equal(t, "dir/page:v2", ref.PageID())
	assert.Equal(t, "vfs:sess-42:dir/page:v2", ref.String())
}

func TestParseRef_RoundTrip(t *testing.T) {
	inputs := []string{
		"vfs:a:b",
		"/tmp/workspaces/xyz",
		"relative/path",
	}
	for _, in := range inputs {
		ref, err := workspace.ParseRef(in)
		require.NoError(t, err)
		assert.Equal(t, in, ref.String())
	}
}

func TestParseRef_Errors(t *testing.T) {
	_, err := workspace.ParseRef("")
	assert.Error(t, err)

	_, err = workspace.ParseRef("vfs:onlyid")
	assert.Error(t, err)

	_, err = workspace.ParseRef("vfs::page")
	assert.Error(t, err)

	_, err = workspace.ParseRef("vfs:id:")
	assert.Error(t, err)
}

func TestRef_IsZero(t *testing.T) {
	var ref workspace.Ref
	assert.True(t, ref.IsZero())

	disk := workspace.NewDiskRef("/x")
	assert.False(t, disk.IsZero())
}
