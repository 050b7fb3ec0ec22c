package fat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pferrors "github.com/zapfs/pseudofat/errors"
)

func newFormattedVolume(t *testing.T, size int64) *Volume {
	v, err := OpenMemory(nil)
	require.NoError(t, err)
	require.NoError(t, v.Format(size))
	return v
}

func writeHostFile(t *testing.T, dir string, name string, contents []byte) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, contents, 0o644))
	return path
}

func TestVolume_Format_ScenarioOneClusterCount(t *testing.T) {
	v := newFormattedVolume(t, 1048576)
	assert.EqualValues(t, 1048576, v.Meta.DiskSize)
	assert.EqualValues(t, 1024, v.Meta.ClusterSize)
	assert.EqualValues(t, 1019, v.Meta.ClusterCount)

	entries, err := v.Ls("")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ".", entries[0].Name)
	assert.Equal(t, "..", entries[1].Name)
}

func TestVolume_Format_WithNamedPreset(t *testing.T) {
	size, err := ParseImageSize("floppy1440")
	require.NoError(t, err)
	v := newFormattedVolume(t, size)
	assert.EqualValues(t, 1474560, v.Meta.DiskSize)
}

func TestVolume_Mkdir_DuplicateFails(t *testing.T) {
	v := newFormattedVolume(t, 4096)
	require.NoError(t, v.Mkdir("a"))

	err := v.Mkdir("a")
	assert.ErrorIs(t, err, pferrors.ErrDirExists)
}

func TestVolume_Rmdir_NotEmptyFails(t *testing.T) {
	v := newFormattedVolume(t, 4096)
	require.NoError(t, v.Mkdir("a"))
	require.NoError(t, v.Cd("a"))
	require.NoError(t, v.Mkdir("b"))
	require.NoError(t, v.Cd(".."))

	err := v.Rmdir("a")
	assert.ErrorIs(t, err, pferrors.ErrDirectoryNotEmpty)
}

func TestVolume_MkdirRmdir_RestoresFreeCluster(t *testing.T) {
	v := newFormattedVolume(t, 4096)

	before, ok, err := v.fat.FindFreeCluster()
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, v.Mkdir("a"))
	require.NoError(t, v.Rmdir("a"))

	after, ok, err := v.fat.FindFreeCluster()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, before, after)
}

func TestVolume_Cd_UpdatesPathAndAddress(t *testing.T) {
	v := newFormattedVolume(t, 4096)
	require.NoError(t, v.Mkdir("a"))
	require.NoError(t, v.Cd("a"))
	assert.Equal(t, "/a/", v.Cwd().Path)

	require.NoError(t, v.Cd(".."))
	assert.Equal(t, "/", v.Cwd().Path)
	assert.Equal(t, v.rootAddress, v.Cwd().Address)
}

func TestVolume_IncpOutcp_RoundTrip(t *testing.T) {
	v := newFormattedVolume(t, 8192)
	dir := t.TempDir()

	content := make([]byte, 2500)
	for i := range content {
		content[i] = byte(i % 251)
	}
	src := writeHostFile(t, dir, "host.bin", content)

	require.NoError(t, v.Incp(src, "/x"))

	info, err := v.Info("/x")
	require.NoError(t, err)
	assert.Len(t, info.Chain, 3)
	assert.EqualValues(t, 1, v.fat.AddressToClusterIndex(info.Chain[0]))

	dst := filepath.Join(dir, "roundtrip.bin")
	require.NoError(t, v.Outcp("/x", dst))

	roundTripped, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, content, roundTripped)

	data, err := v.Cat("/x")
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestVolume_Incp_DuplicateDestinationFails(t *testing.T) {
	v := newFormattedVolume(t, 8192)
	dir := t.TempDir()
	src := writeHostFile(t, dir, "a.bin", []byte("hello"))

	require.NoError(t, v.Incp(src, "/a"))
	err := v.Incp(src, "/a")
	assert.ErrorIs(t, err, pferrors.ErrExists)
}

func TestVolume_Rm_FreesChain(t *testing.T) {
	v := newFormattedVolume(t, 8192)
	dir := t.TempDir()
	src := writeHostFile(t, dir, "a.bin", make([]byte, 3000))
	require.NoError(t, v.Incp(src, "/a"))

	require.NoError(t, v.Rm("/a"))

	_, err := v.Cat("/a")
	assert.ErrorIs(t, err, pferrors.ErrNotFound)
}

func TestVolume_Cp_AllocatesIndependentChain(t *testing.T) {
	v := newFormattedVolume(t, 8192)
	dir := t.TempDir()
	src := writeHostFile(t, dir, "a.bin", []byte("some file contents"))
	require.NoError(t, v.Incp(src, "/a"))

	require.NoError(t, v.Cp("/a", "/b"))

	aInfo, err := v.Info("/a")
	require.NoError(t, err)
	bInfo, err := v.Info("/b")
	require.NoError(t, err)
	assert.NotEqual(t, aInfo.Entry.StartCluster, bInfo.Entry.StartCluster)

	data, err := v.Cat("/b")
	require.NoError(t, err)
	assert.Equal(t, []byte("some file contents"), data)
}

func TestVolume_Mv_RoundTripIsNoOp(t *testing.T) {
	v := newFormattedVolume(t, 8192)
	dir := t.TempDir()
	src := writeHostFile(t, dir, "a.bin", []byte("payload"))
	require.NoError(t, v.Incp(src, "/a"))

	before, err := v.Info("/a")
	require.NoError(t, err)

	require.NoError(t, v.Mv("/a", "/b"))
	require.NoError(t, v.Mv("/b", "/a"))

	after, err := v.Info("/a")
	require.NoError(t, err)
	assert.Equal(t, before.Entry.StartCluster, after.Entry.StartCluster)
	assert.Equal(t, before.Entry.Size, after.Entry.Size)
}

func TestVolume_Mv_ExistingDestinationFails(t *testing.T) {
	v := newFormattedVolume(t, 8192)
	dir := t.TempDir()
	require.NoError(t, v.Incp(writeHostFile(t, dir, "a.bin", []byte("a")), "/a"))
	require.NoError(t, v.Incp(writeHostFile(t, dir, "b.bin", []byte("b")), "/b"))

	err := v.Mv("/a", "/b")
	assert.ErrorIs(t, err, pferrors.ErrExists)
}

// TestVolume_LowestFreeClusterWins mirrors concrete scenario 5: incp three 2-cluster
// files, remove the middle one, then incp a fourth -- it must land exactly on the
// clusters freed by the removed file.
func TestVolume_LowestFreeClusterWins(t *testing.T) {
	v := newFormattedVolume(t, 65536)
	dir := t.TempDir()
	twoClusters := make([]byte, 1500)

	require.NoError(t, v.Incp(writeHostFile(t, dir, "a.bin", twoClusters), "/a"))
	require.NoError(t, v.Incp(writeHostFile(t, dir, "b.bin", twoClusters), "/b"))
	require.NoError(t, v.Incp(writeHostFile(t, dir, "c.bin", twoClusters), "/c"))

	bInfoBefore, err := v.Info("/b")
	require.NoError(t, err)

	require.NoError(t, v.Rm("/b"))
	require.NoError(t, v.Incp(writeHostFile(t, dir, "d.bin", twoClusters), "/d"))

	dInfo, err := v.Info("/d")
	require.NoError(t, err)
	assert.Equal(t, bInfoBefore.Entry.StartCluster, dInfo.Entry.StartCluster)
}

func TestVolume_Defrag_AlreadyConsecutiveIsNoOp(t *testing.T) {
	v := newFormattedVolume(t, 65536)
	dir := t.TempDir()
	content := make([]byte, 5000)
	require.NoError(t, v.Incp(writeHostFile(t, dir, "f.bin", content), "/f"))

	before, err := v.Info("/f")
	require.NoError(t, err)

	require.NoError(t, v.Defrag("/f"))

	after, err := v.Info("/f")
	require.NoError(t, err)
	assert.Equal(t, before.Chain, after.Chain)
}

func TestVolume_Defrag_MakesChainConsecutive(t *testing.T) {
	v := newFormattedVolume(t, 65536)
	dir := t.TempDir()
	oneCluster := make([]byte, 100)

	require.NoError(t, v.Incp(writeHostFile(t, dir, "a.bin", oneCluster), "/a"))
	require.NoError(t, v.Incp(writeHostFile(t, dir, "b.bin", oneCluster), "/b"))
	require.NoError(t, v.Incp(writeHostFile(t, dir, "c.bin", oneCluster), "/c"))
	require.NoError(t, v.Rm("/b"))

	bigContent := make([]byte, 1500)
	for i := range bigContent {
		bigContent[i] = byte(i)
	}
	require.NoError(t, v.Incp(writeHostFile(t, dir, "big.bin", bigContent), "/big"))

	fragmented, err := v.Info("/big")
	require.NoError(t, err)
	require.False(t, isConsecutiveAscending(v.fat, fragmented.Chain), "test setup must actually produce a fragmented chain")

	require.NoError(t, v.Defrag("/big"))

	defragged, err := v.Info("/big")
	require.NoError(t, err)
	assert.True(t, isConsecutiveAscending(v.fat, defragged.Chain))

	data, err := v.Cat("/big")
	require.NoError(t, err)
	assert.Equal(t, bigContent, data)
}

func TestVolume_Check_ZeroViolationsOnCleanVolume(t *testing.T) {
	v := newFormattedVolume(t, 65536)
	dir := t.TempDir()
	require.NoError(t, v.Mkdir("/d"))
	require.NoError(t, v.Incp(writeHostFile(t, dir, "a.bin", []byte("abc")), "/a"))
	require.NoError(t, v.Incp(writeHostFile(t, dir, "s.bin", []byte("xyz")), "/d/s"))

	assert.NoError(t, v.Check())
}

func TestVolume_Check_CatchesDanglingChain(t *testing.T) {
	v := newFormattedVolume(t, 65536)
	dir := t.TempDir()
	require.NoError(t, v.Incp(writeHostFile(t, dir, "a.bin", []byte("abc")), "/a"))

	index := v.fat.AddressToClusterIndex(mustInfo(t, v, "/a").Entry.StartCluster)
	require.NoError(t, v.fat.WriteCell(index, Bad))

	assert.Error(t, v.Check())
}

func mustInfo(t *testing.T, v *Volume, path string) FileInfo {
	info, err := v.Info(path)
	require.NoError(t, err)
	return info
}
