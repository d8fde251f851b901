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
	"fmt"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	profiler interface{ Stop() }
)

var rootCmd = &cobra.Command{
	Use:   "meshmap",
	Short: "Cell addressing and interpolation weights between overlapping 3D meshes",
	Long: `
Computes the overlap of every cell of a source mesh with the cells of a target
mesh, on one or more cooperating processors, and reports the interpolation
weights and overlap volume.

meshmap map -F run.yaml --np 4`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
		var level logrus.Level
		if level, err = logrus.ParseLevel(viper.GetString("logLevel")); err != nil {
			return
		}
		logrus.SetLevel(level)
		if dir := viper.GetString("profile"); dir != "" {
			profiler = profile.Start(profile.CPUProfile, profile.ProfilePath(dir), profile.Quiet)
		}
		return
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if profiler != nil {
			profiler.Stop()
			profiler = nil
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.meshmap.yaml)")
	rootCmd.PersistentFlags().String("logLevel", "info", "log level: panic, fatal, error, warn, info, debug or trace")
	rootCmd.PersistentFlags().String("profile", "", "write a CPU profile to this directory")
	for _, name := range []string{"logLevel", "profile"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".meshmap")
	}
	viper.SetEnvPrefix("MESHMAP")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logrus.WithField("file", viper.ConfigFileUsed()).Info("Using config file")
	}
}
