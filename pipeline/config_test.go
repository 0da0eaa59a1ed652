package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsInternallyConsistent(t *testing.T) {
	cfg := Default()
	assert.Contains(t, []int{4, 16, 64}, cfg.QAMMapping)
	assert.Contains(t, []int{2048, 4096, 8192}, cfg.OFDMMode)
	assert.Equal(t, -1, cfg.CellID)
}

func TestLoadFile_OverridesOnlySetFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("qammapping: 16\ncellid: 7\n"), 0o644))

	base := Default()
	merged, err := LoadFile(path, base)
	require.NoError(t, err)

	assert.Equal(t, 16, merged.QAMMapping)
	assert.Equal(t, 7, merged.CellID)
	assert.Equal(t, base.OFDMMode, merged.OFDMMode, "fields absent from the file must keep the caller's default")
}

func TestLoadFile_OverridesHierarchyAndInterleaverFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hyerarchymode: 1\nindepthinterleaver: true\n"), 0o644))

	merged, err := LoadFile(path, Default())
	require.NoError(t, err)

	assert.Equal(t, 1, merged.HierarchyMode)
	assert.True(t, merged.InDepthInterleaver)
}

func TestLoadFile_RejectsMissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), Default())
	assert.Error(t, err)
}

func TestLoadFile_RejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("qammapping: [this, is, not, an, int]"), 0o644))

	_, err := LoadFile(path, Default())
	assert.Error(t, err)
}
