package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/notargets/meshmap/InputParameters"
	"github.com/notargets/meshmap/meshtomesh"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offsetCubes(np int) *InputParameters.MapParameters {
	mp := InputParameters.NewMapParameters()
	mp.Title = "Offset cubes"
	mp.NumProcs = np
	mp.Source = InputParameters.BoxParameters{
		Size: [3]float64{1, 1, 1}, Divisions: [3]int{4, 4, 4}, Element: "hex",
	}
	mp.Target = InputParameters.BoxParameters{
		Origin: [3]float64{0.1, 0, 0}, Size: [3]float64{1, 1, 1}, Divisions: [3]int{4, 4, 4}, Element: "hex",
	}
	return mp
}

func TestRunMap(t *testing.T) {
	log, _ := test.NewNullLogger()
	for _, np := range []int{1, 2, 3} {
		rep, err := runMap(offsetCubes(np), "", log)
		require.NoError(t, err)
		assert.InDelta(t, 0.9, rep.V, 1e-12)
		assert.Equal(t, 64, rep.SrcCells)
		assert.Equal(t, 64, rep.TgtCells)
		assert.Equal(t, 0, rep.UnmappedSrc)
		assert.Equal(t, 0, rep.UnmappedTgt)
		assert.Equal(t, meshtomesh.CellVolumeWeight, rep.Method)
		if np == 1 {
			assert.Equal(t, 0, rep.SingleMeshProc)
		} else {
			assert.Equal(t, -1, rep.SingleMeshProc)
		}
	}

	mp := offsetCubes(2)
	mp.Method = "nearest"
	_, err := runMap(mp, "", log)
	assert.ErrorIs(t, err, meshtomesh.ErrInvalidMethod)

	mp = offsetCubes(2)
	mp.Target.Element = "pyramid"
	_, err = runMap(mp, "", log)
	assert.Error(t, err)
}

func TestRunMap_Connectivity(t *testing.T) {
	log, _ := test.NewNullLogger()
	dir := t.TempDir()
	objFile := filepath.Join(dir, "conn.obj")
	_, err := runMap(offsetCubes(2), objFile, log)
	require.NoError(t, err)
	for rank := 0; rank < 2; rank++ {
		data, err := os.ReadFile(filepath.Join(dir, "conn_"+string(rune('0'+rank))+".obj"))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "v "))
		assert.Contains(t, string(data), "\nl ")
	}
	assert.Equal(t, "a.obj", objFileName("a.obj", 0, 1))
	assert.Equal(t, filepath.Join(dir, "a_3.obj"), objFileName(filepath.Join(dir, "a.obj"), 3, 4))
}

func TestRunPartition(t *testing.T) {
	log, hook := test.NewNullLogger()
	srcCut, tgtCut, err := runPartition(offsetCubes(2), log)
	require.NoError(t, err)
	// Two contiguous halves of a 4x4x4 box share one 4x4 layer of faces
	assert.Equal(t, 16, srcCut)
	assert.Equal(t, 16, tgtCut)
	found := false
	for _, e := range hook.AllEntries() {
		if e.Message == "Partition Analysis" && e.Level == logrus.InfoLevel {
			found = true
		}
	}
	assert.True(t, found)

	mp := offsetCubes(2)
	mp.Partitioner = "random"
	_, _, err = runPartition(mp, log)
	assert.Error(t, err)
}

func TestMapCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(input, []byte(exampleInput), 0o644))
	rootCmd.SetArgs([]string{"map", "-F", input, "--np", "2", "--method", "direct", "--logLevel", "error"})
	assert.NoError(t, rootCmd.Execute())

	rootCmd.SetArgs([]string{"partition", "-F", input, "--logLevel", "error"})
	assert.NoError(t, rootCmd.Execute())

	// Flag values persist between executions, clear the input file
	rootCmd.SetArgs([]string{"map", "-F", "", "--logLevel", "error"})
	assert.Error(t, rootCmd.Execute())
}
