/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/notargets/meshmap/InputParameters"
	"github.com/notargets/meshmap/mesh"
	"github.com/notargets/meshmap/mesh/partition"
	"github.com/notargets/meshmap/meshtomesh"
	"github.com/notargets/meshmap/parallel"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/spatial/r3"
)

// Parameter names that flags and MESHMAP_ environment variables override
var overrideFlags = map[string]string{
	"Method":      "method",
	"Tolerance":   "tolerance",
	"NumProcs":    "np",
	"Partitioner": "partitioner",
}

// MapCmd represents the map command
var MapCmd = &cobra.Command{
	Use:   "map",
	Short: "Compute the addressing between two box meshes",
	Long: `
Builds the source and target box meshes described in the input file, splits
them over the requested number of processors and computes the cell addressing
and interpolation weights between them.

meshmap map -F run.yaml --np 4 --obj connectivity.obj`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindOverrides(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			mp      *InputParameters.MapParameters
			objFile string
			rep     *mapReport
		)
		if mp, err = readInput(cmd); err != nil {
			return
		}
		objFile, _ = cmd.Flags().GetString("obj")
		if rep, err = runMap(mp, objFile, logrus.StandardLogger()); err != nil {
			return
		}
		rep.Print()
		return
	},
}

func init() {
	rootCmd.AddCommand(MapCmd)
	addInputFlags(MapCmd)
	MapCmd.Flags().String("obj", "", "write source to target cell connectivity to this OBJ file")
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("inputFile", "F", "", "YAML or TOML file describing the meshes and method")
	cmd.Flags().IntP("np", "n", 1, "number of processors")
	cmd.Flags().StringP("method", "m", "", "interpolation method: direct or cellVolumeWeight")
	cmd.Flags().Float64("tolerance", 0, "relative overlap tolerance")
	cmd.Flags().String("partitioner", "", "partitioner: block or metis")
}

func bindOverrides(cmd *cobra.Command) (err error) {
	for key, flag := range overrideFlags {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err = viper.BindPFlag(key, f); err != nil {
				return
			}
		}
	}
	return
}

// readInput reads the input file and applies the flags and environment
// values that were set
func readInput(cmd *cobra.Command) (mp *InputParameters.MapParameters, err error) {
	var inputFile string
	if inputFile, err = cmd.Flags().GetString("inputFile"); err != nil {
		return
	}
	if inputFile == "" {
		fmt.Printf("Example File:%s\n", exampleInput)
		return nil, fmt.Errorf("must supply an input file (-F, --inputFile)")
	}
	if mp, err = InputParameters.ReadMapParameters(inputFile); err != nil {
		return
	}
	overrides := make(map[string]interface{})
	for key := range overrideFlags {
		if viper.IsSet(key) {
			overrides[key] = viper.Get(key)
		}
	}
	if err = mp.ApplyOverrides(overrides); err != nil {
		return
	}
	if err = mp.Validate(); err != nil {
		return
	}
	mp.Print()
	return
}

var exampleInput = `
########################################
Title: "Offset cubes"
Method: cellVolumeWeight # Can be "direct"
NumProcs: 2
Partitioner: block # Can be "metis"
Source:
  Origin: [0, 0, 0]
  Size: [1, 1, 1]
  Divisions: [8, 8, 8]
  Element: hex
Target:
  Origin: [0.1, 0, 0]
  Size: [1, 1, 1]
  Divisions: [6, 6, 6]
  Element: tet
########################################
`

func buildMesh(bp InputParameters.BoxParameters) (m *mesh.Mesh, err error) {
	if bp.File != "" {
		return mesh.ReadMeshFile(bp.File)
	}
	var et mesh.ElementType
	if et, err = mesh.ParseElementType(bp.Element); err != nil {
		return
	}
	return mesh.NewBoxMesh(
		r3.Vec{X: bp.Origin[0], Y: bp.Origin[1], Z: bp.Origin[2]},
		r3.Vec{X: bp.Size[0], Y: bp.Size[1], Z: bp.Size[2]},
		bp.Divisions[0], bp.Divisions[1], bp.Divisions[2], et)
}

// decomposeBox builds or reads a mesh and splits it over np processors
func decomposeBox(name string, bp InputParameters.BoxParameters, p partition.Partitioner, np int,
	log logrus.FieldLogger) (d *mesh.Decomposition, err error) {
	var (
		m    *mesh.Mesh
		eToP []int
	)
	if m, err = buildMesh(bp); err != nil {
		return nil, fmt.Errorf("%s mesh: %w", name, err)
	}
	m.PrintStatistics(log.WithField("mesh", name))
	if eToP, err = p.Partition(m, np); err != nil {
		return nil, fmt.Errorf("partitioning %s mesh: %w", name, err)
	}
	partition.Analyze(m, eToP, np, log.WithField("mesh", name))
	return mesh.Decompose(m, eToP, np)
}

type mapReport struct {
	Method                   meshtomesh.InterpolationMethod
	NumProcs                 int
	SrcCells, TgtCells       int
	UnmappedSrc, UnmappedTgt int
	SingleMeshProc           int
	V                        float64
}

func (rep *mapReport) Print() {
	fmt.Printf("[%s]\t\t= Method\n", rep.Method)
	fmt.Printf("[%d]\t\t\t\t= Number of Processors\n", rep.NumProcs)
	fmt.Printf("%d of %d source cells unmapped\n", rep.UnmappedSrc, rep.SrcCells)
	fmt.Printf("%d of %d target cells unmapped\n", rep.UnmappedTgt, rep.TgtCells)
	if rep.SingleMeshProc >= 0 {
		fmt.Printf("Both meshes held by processor %d\n", rep.SingleMeshProc)
	}
	fmt.Printf("%12.8f\t\t= Overlap Volume\n", rep.V)
}

// objFileName gives every processor its own connectivity file when there
// are several
func objFileName(objFile string, rank, np int) string {
	if np == 1 {
		return objFile
	}
	ext := filepath.Ext(objFile)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(objFile, ext), rank, ext)
}

func runMap(mp *InputParameters.MapParameters, objFile string, log logrus.FieldLogger) (rep *mapReport, err error) {
	var (
		method     meshtomesh.InterpolationMethod
		p          partition.Partitioner
		srcD, tgtD *mesh.Decomposition
		np         = mp.NumProcs
	)
	if method, err = meshtomesh.ParseInterpolationMethod(mp.Method); err != nil {
		return
	}
	if p, err = partition.New(mp.Partitioner, log); err != nil {
		return
	}
	if srcD, err = decomposeBox("source", mp.Source, p, np, log); err != nil {
		return
	}
	if tgtD, err = decomposeBox("target", mp.Target, p, np, log); err != nil {
		return
	}
	rep = &mapReport{
		Method:   method,
		NumProcs: np,
		SrcCells: srcD.Offsets[np],
		TgtCells: tgtD.Offsets[np],
	}
	objs := make([]bytes.Buffer, np)
	err = parallel.NewWorld(np).Run(func(c *parallel.Comm) (err error) {
		var (
			e                        *meshtomesh.MeshToMesh
			unmappedSrc, unmappedTgt int
			cfg                      = &meshtomesh.Config{Tolerance: mp.Tolerance, Logger: log}
		)
		if e, err = meshtomesh.New(c, srcD.Meshes[c.Rank()], tgtD.Meshes[c.Rank()], method, cfg); err != nil {
			return
		}
		if unmappedSrc, err = parallel.AllReduceSumInt(c, len(e.UnmappedSrcCells())); err != nil {
			return
		}
		if unmappedTgt, err = parallel.AllReduceSumInt(c, len(e.UnmappedTgtCells())); err != nil {
			return
		}
		if objFile != "" {
			if err = e.WriteConnectivity(&objs[c.Rank()]); err != nil {
				return
			}
		}
		if c.Master() {
			rep.V = e.V()
			rep.SingleMeshProc = e.SingleMeshProc()
			rep.UnmappedSrc, rep.UnmappedTgt = unmappedSrc, unmappedTgt
		}
		return
	})
	if err != nil {
		return nil, err
	}
	if objFile != "" {
		for rank := range objs {
			name := objFileName(objFile, rank, np)
			if err = os.WriteFile(name, objs[rank].Bytes(), 0o644); err != nil {
				return nil, err
			}
			log.WithField("file", name).Info("Wrote connectivity")
		}
	}
	return
}
