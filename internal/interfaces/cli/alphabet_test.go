package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appalphabet "github.com/turtacn/MolSig-Alphabet/internal/application/alphabet"
	domain "github.com/turtacn/MolSig-Alphabet/internal/domain/alphabet"
)

func writeCorpus(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mols.smi")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))
	return path
}

func TestAlphabetBuild(t *testing.T) {
	input := writeCorpus(t, "CCO\nCO mol-2\n# comment\n\n*CC\n")
	output := filepath.Join(t.TempDir(), "corpus.alpha")

	stdout, _, err := executeCommand("alphabet", "build",
		"--input", input, "--output", output, "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, stdout, "processed 2, skipped 1, failed 0")

	a, err := domain.LoadFile(output)
	require.NoError(t, err)
	assert.Greater(t, a.Size(), 0)
	assert.Equal(t, domain.DefaultConfig(), a.Config())
}

func TestAlphabetBuild_CustomConfig(t *testing.T) {
	input := writeCorpus(t, "CCO\n")
	output := filepath.Join(t.TempDir(), "r3.alpha")

	_, _, err := executeCommand("alphabet", "build",
		"--input", input, "--output", output,
		"--radius", "3", "--bits", "1024", "--register-all-levels")
	require.NoError(t, err)

	a, err := domain.LoadFile(output)
	require.NoError(t, err)
	assert.Equal(t, 3, a.Config().Radius)
	assert.Equal(t, uint32(1024), a.Config().BitWidth)
	assert.True(t, a.Config().RegisterAllLevels)
}

func TestAlphabetBuild_EmptyCorpus(t *testing.T) {
	input := writeCorpus(t, "# nothing here\n")
	output := filepath.Join(t.TempDir(), "empty.alpha")

	_, _, err := executeCommand("alphabet", "build", "--input", input, "--output", output)
	require.Error(t, err)
}

func TestAlphabetBuild_MissingInput(t *testing.T) {
	output := filepath.Join(t.TempDir(), "x.alpha")
	_, _, err := executeCommand("alphabet", "build",
		"--input", "no-such-file.smi", "--output", output)
	require.Error(t, err)
}

func buildArchive(t *testing.T, corpus string, extra ...string) string {
	t.Helper()
	input := writeCorpus(t, corpus)
	output := filepath.Join(t.TempDir(), "a.alpha")
	args := append([]string{"alphabet", "build", "--input", input, "--output", output}, extra...)
	_, _, err := executeCommand(args...)
	require.NoError(t, err)
	return output
}

func TestAlphabetMerge(t *testing.T) {
	a := buildArchive(t, "CCO\n")
	b := buildArchive(t, "c1ccccc1\n")
	merged := filepath.Join(t.TempDir(), "merged.alpha")

	_, _, err := executeCommand("alphabet", "merge", "--output", merged, a, b)
	require.NoError(t, err)

	ma, err := domain.LoadFile(merged)
	require.NoError(t, err)

	aa, err := domain.LoadFile(a)
	require.NoError(t, err)
	ba, err := domain.LoadFile(b)
	require.NoError(t, err)
	assert.Equal(t, aa.Size()+ba.Size(), ma.Size())
}

func TestAlphabetMerge_IncompatibleConfigs(t *testing.T) {
	a := buildArchive(t, "CCO\n")
	b := buildArchive(t, "CCO\n", "--radius", "3")
	merged := filepath.Join(t.TempDir(), "merged.alpha")

	_, _, err := executeCommand("alphabet", "merge", "--output", merged, a, b)
	require.Error(t, err)
}

func TestAlphabetInfo(t *testing.T) {
	archive := buildArchive(t, "CCO\nCO\n")

	stdout, _, err := executeCommand("alphabet", "info", archive)
	require.NoError(t, err)
	assert.Contains(t, stdout, "radius: 2")

	stdout, _, err = executeCommand("-o", "json", "alphabet", "info", archive)
	require.NoError(t, err)

	var info appalphabet.Info
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Greater(t, info.Entries, 0)
	assert.Equal(t, domain.DefaultConfig(), info.Config)
}

func TestAlphabetInfo_MissingFile(t *testing.T) {
	_, _, err := executeCommand("alphabet", "info", "no-such.alpha")
	require.Error(t, err)
}
