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
	"github.com/notargets/meshmap/InputParameters"
	"github.com/notargets/meshmap/mesh/partition"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// PartitionCmd represents the partition command
var PartitionCmd = &cobra.Command{
	Use:   "partition",
	Short: "Report how the meshes of an input file split over processors",
	Long: `
Builds the source and target box meshes described in the input file and logs
the partition statistics of each, without computing any addressing.

meshmap partition -F run.yaml --np 8 --partitioner metis`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindOverrides(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var mp *InputParameters.MapParameters
		if mp, err = readInput(cmd); err != nil {
			return
		}
		_, _, err = runPartition(mp, logrus.StandardLogger())
		return
	},
}

func init() {
	rootCmd.AddCommand(PartitionCmd)
	addInputFlags(PartitionCmd)
}

// runPartition returns the number of faces cut by the partition of each mesh
func runPartition(mp *InputParameters.MapParameters, log logrus.FieldLogger) (srcCut, tgtCut int, err error) {
	var p partition.Partitioner
	if p, err = partition.New(mp.Partitioner, log); err != nil {
		return
	}
	for _, box := range []struct {
		name string
		bp   InputParameters.BoxParameters
		cut  *int
	}{
		{"source", mp.Source, &srcCut},
		{"target", mp.Target, &tgtCut},
	} {
		m, err := buildMesh(box.bp)
		if err != nil {
			return 0, 0, err
		}
		m.PrintStatistics(log.WithField("mesh", box.name))
		eToP, err := p.Partition(m, mp.NumProcs)
		if err != nil {
			return 0, 0, err
		}
		_, *box.cut = partition.Analyze(m, eToP, mp.NumProcs, log.WithField("mesh", box.name))
	}
	return
}
