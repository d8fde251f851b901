package InputParameters

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var yamlInput = `
Title: "Offset cubes"
Method: direct
Tolerance: 1.0e-8
NumProcs: 3
Partitioner: metis
Source:
  Origin: [0, 0, 0]
  Size: [1, 1, 1]
  Divisions: [4, 4, 4]
  Element: hex
Target:
  Origin: [0.1, 0, 0]
  Size: [1, 1, 1]
  Divisions: [3, 3, 3]
  Element: tet
`

var tomlInput = `
Title = "Offset cubes"
Method = "direct"
Tolerance = 1.0e-8
NumProcs = 3
Partitioner = "metis"

[Source]
Origin = [0.0, 0.0, 0.0]
Size = [1.0, 1.0, 1.0]
Divisions = [4, 4, 4]
Element = "hex"

[Target]
Origin = [0.1, 0.0, 0.0]
Size = [1.0, 1.0, 1.0]
Divisions = [3, 3, 3]
Element = "tet"
`

func checkParsed(t *testing.T, mp *MapParameters) {
	assert.Equal(t, "Offset cubes", mp.Title)
	assert.Equal(t, "direct", mp.Method)
	assert.Equal(t, 1e-8, mp.Tolerance)
	assert.Equal(t, 3, mp.NumProcs)
	assert.Equal(t, "metis", mp.Partitioner)
	assert.Equal(t, [3]int{4, 4, 4}, mp.Source.Divisions)
	assert.Equal(t, "hex", mp.Source.Element)
	assert.Equal(t, [3]float64{0.1, 0, 0}, mp.Target.Origin)
	assert.Equal(t, [3]float64{1, 1, 1}, mp.Target.Size)
	assert.Equal(t, "tet", mp.Target.Element)
	assert.NoError(t, mp.Validate())
}

func TestParse(t *testing.T) {
	mp := NewMapParameters()
	require.NoError(t, mp.Parse([]byte(yamlInput)))
	checkParsed(t, mp)

	mp = NewMapParameters()
	require.NoError(t, mp.ParseTOML([]byte(tomlInput)))
	checkParsed(t, mp)

	// Unset values keep their defaults
	mp = NewMapParameters()
	require.NoError(t, mp.Parse([]byte("Title: short\n")))
	assert.Equal(t, "cellVolumeWeight", mp.Method)
	assert.Equal(t, 1, mp.NumProcs)
	assert.Equal(t, "block", mp.Partitioner)
}

func TestReadMapParameters(t *testing.T) {
	dir := t.TempDir()
	yamlFile := filepath.Join(dir, "run.yaml")
	tomlFile := filepath.Join(dir, "run.toml")
	require.NoError(t, os.WriteFile(yamlFile, []byte(yamlInput), 0o644))
	require.NoError(t, os.WriteFile(tomlFile, []byte(tomlInput), 0o644))

	mp, err := ReadMapParameters(yamlFile)
	require.NoError(t, err)
	checkParsed(t, mp)
	mp, err = ReadMapParameters(tomlFile)
	require.NoError(t, err)
	checkParsed(t, mp)

	// TOML content in a YAML file does not parse
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(tomlInput), 0o644))
	_, err = ReadMapParameters(bad)
	assert.Error(t, err)

	_, err = ReadMapParameters(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *MapParameters {
		mp := NewMapParameters()
		require.NoError(t, mp.Parse([]byte(yamlInput)))
		return mp
	}
	mp := valid()
	mp.Tolerance = 1
	assert.Error(t, mp.Validate())

	mp = valid()
	mp.NumProcs = 0
	assert.Error(t, mp.Validate())

	mp = valid()
	mp.Method = ""
	assert.Error(t, mp.Validate())

	mp = valid()
	mp.Source.Divisions[1] = 0
	assert.Error(t, mp.Validate())

	mp = valid()
	mp.Target.Size[2] = -1
	assert.Error(t, mp.Validate())

	mp = valid()
	mp.Target.Element = ""
	assert.Error(t, mp.Validate())

	// A mesh file replaces the box description
	mp.Target = BoxParameters{File: "target.msh"}
	assert.NoError(t, mp.Validate())
	var buf bytes.Buffer
	mp.Fprint(&buf)
	assert.Contains(t, buf.String(), "Target = target.msh")
}

func TestApplyOverrides(t *testing.T) {
	mp := NewMapParameters()
	require.NoError(t, mp.Parse([]byte(yamlInput)))
	require.NoError(t, mp.ApplyOverrides(map[string]interface{}{
		"NumProcs":    "5",
		"Tolerance":   "1e-4",
		"Method":      "cellVolumeWeight",
		"Partitioner": nil,
	}))
	assert.Equal(t, 5, mp.NumProcs)
	assert.Equal(t, 1e-4, mp.Tolerance)
	assert.Equal(t, "cellVolumeWeight", mp.Method)
	assert.Equal(t, "metis", mp.Partitioner)

	assert.Error(t, mp.ApplyOverrides(map[string]interface{}{"NumProcs": "many"}))
	assert.Error(t, mp.ApplyOverrides(map[string]interface{}{"Color": "red"}))
}

func TestPrint(t *testing.T) {
	mp := NewMapParameters()
	require.NoError(t, mp.Parse([]byte(yamlInput)))
	var buf bytes.Buffer
	mp.Fprint(&buf)
	out := buf.String()
	assert.Contains(t, out, "\"Offset cubes\"")
	assert.Contains(t, out, "[direct]")
	assert.Contains(t, out, "Source[hex]")
	assert.Contains(t, out, "Target[tet]")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Source")), bytes.Index(buf.Bytes(), []byte("Target")))
}
