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
	"io/ioutil"
	"os"
	"sort"

	"github.com/geopde/propmat/InputParameters"
	"github.com/geopde/propmat/pde"
	"github.com/geopde/propmat/utils"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Builds every mass matrix a case file declares and verifies the inverses",
	Long: `Reads a YAML case file, assembles the mesh, property and composite
definitions it declares, builds the forward and inverse mass matrix on every
declared support and reports the result,

propmat build -f case.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
			b   = &BuildRun{}
		)
		if b.CaseFile, err = cmd.Flags().GetString("caseFile"); err != nil {
			panic(err)
		}
		b.Profile, _ = cmd.Flags().GetBool("profile")
		if len(b.CaseFile) == 0 {
			fmt.Println("error: must supply a case file (-f, --caseFile)")
			os.Exit(1)
		}
		RunBuild(b)
	},
}

type BuildRun struct {
	CaseFile string
	Profile  bool
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringP("caseFile", "f", "", "YAML case file describing mesh, properties and composites")
	buildCmd.Flags().Bool("profile", false, "generate a runtime profile of the matrix assembly")
}

func RunBuild(b *BuildRun) {
	data, err := ioutil.ReadFile(b.CaseFile)
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	var input InputParameters.InputParameters
	if err = input.Parse(data); err != nil {
		fmt.Printf("error parsing %s: %s\n", b.CaseFile, err.Error())
		os.Exit(1)
	}
	input.Print()

	if b.Profile {
		defer profile.Start().Stop()
	}

	sim, err := input.Build()
	if err != nil {
		fmt.Printf("error building %s: %s\n", b.CaseFile, err.Error())
		os.Exit(1)
	}
	msh := sim.Mesh()
	fmt.Printf("mesh: %d cells, %d nodes, %d faces, %d edges\n",
		msh.NumCells(), msh.NumNodes(), msh.NumFaces(), msh.NumEdges())

	names := sim.Sets()
	sort.Strings(names)
	for _, name := range names {
		set, _ := sim.Set(name)
		for _, sup := range set.Class().Supports() {
			reportMatrix(sim, name, sup)
		}
	}
}

// reportMatrix builds the forward and inverse matrix on one support and
// checks their product against the identity.
func reportMatrix(sim *pde.Simulation, name string, sup pde.Support) {
	M, err := sim.MassMatrix(sup, name)
	if err != nil {
		fmt.Printf("%-12s %-12s %s\n", name, sup, err.Error())
		return
	}
	nr, _ := M.Dims()
	MI, err := sim.InverseMassMatrix(sup, name)
	if err != nil {
		fmt.Printf("%-12s %-12s %dx%d, nnz %d, inverse: %s\n", name, sup, nr, nr, M.NNZ(), err.Error())
		return
	}
	residual := utils.MaxAbsDiff(M.MulMat(MI), utils.Eye(nr))
	fmt.Printf("%-12s %-12s %dx%d, nnz %d, |M·Minv - I| = %8.2e\n", name, sup, nr, nr, M.NNZ(), residual)
}
