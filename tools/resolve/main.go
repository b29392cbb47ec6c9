// Copyright 2026 Philipp Stephani
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Binary resolve prints the test runner actions for the sh_test targets in a
// BUILD file, one JSON object per line.
package main

import (
	"cmp"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"

	"github.com/bazelbuild/bazel-gazelle/label"
	"github.com/phst/rules_shtest/platform"
	"github.com/phst/rules_shtest/private/flagutil"
	"github.com/phst/rules_shtest/testaction"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: resolve [flags] BUILD_FILE")
		fs.PrintDefaults()
	}
	pkg := fs.String("package", "", "Bazel package that contains BUILD_FILE")
	platformFiles := flagutil.PackageFilesFlag(fs, "platforms", "BUILD file with platform rules, as PKG=FILE; may be repeated")
	hostPlatform := flagutil.LabelFlag(fs, "host_platform", "label of the execution platform")
	var cfg testaction.Config
	fs.BoolVar(&cfg.CollectCodeCoverage, "collect_code_coverage", false, "add the coverage merger to test actions")
	fs.StringVar(&cfg.InvocationID, "invocation_id", "", "build identifier for error messages")
	toolchainFile := fs.String("toolchain", "", "YAML file describing the test toolchain")
	testSetup := flagutil.RunfileFlag(fs, "test_setup", "location of the POSIX test setup script relative to the runfiles root")
	testWrapper := flagutil.RunfileFlag(fs, "test_wrapper", "location of the Windows test wrapper relative to the runfiles root")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return flag.ErrHelp
	}

	targets, err := testaction.LoadTargetsFile(fs.Arg(0), *pkg)
	if err != nil {
		return err
	}
	tc, err := loadToolchain(*toolchainFile)
	if err != nil {
		return err
	}
	tc.TestSetup = cmp.Or(*testSetup, tc.TestSetup)
	tc.TestWrapper = cmp.Or(*testWrapper, tc.TestWrapper)
	exec, err := execPlatform(*platformFiles, *hostPlatform)
	if err != nil {
		return err
	}

	actions := make([]testaction.Action, len(targets))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, t := range targets {
		g.Go(func() error {
			a, err := testaction.Resolve(t, exec, cfg, tc)
			actions[i] = a
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	for i, t := range targets {
		if err := enc.Encode(newOutput(t.Label, actions[i])); err != nil {
			return err
		}
	}
	return nil
}

func loadToolchain(file string) (testaction.Toolchain, error) {
	if file == "" {
		return testaction.DefaultToolchain(), nil
	}
	f, err := os.Open(file)
	if err != nil {
		return testaction.Toolchain{}, err
	}
	defer f.Close()
	return testaction.LoadToolchain(f)
}

// execPlatform returns the execution platform selected by host, or nil if
// host names a platform that isn’t defined in any of the files.  The caller
// reports the missing platform per target.  The files are always loaded, even
// if host is empty and the default host platform is used.
func execPlatform(files []flagutil.PackageFile, host label.Label) (*platform.ExecutionPlatform, error) {
	reg := platform.NewRegistry()
	if err := reg.Add(platform.Host); err != nil {
		return nil, err
	}
	for _, f := range files {
		if err := reg.AddFileFromDisk(f.File, f.Pkg); err != nil {
			return nil, err
		}
	}
	if host == label.NoLabel {
		return &platform.Host, nil
	}
	p, err := reg.Lookup(host)
	if errors.Is(err, platform.ErrNotFound) {
		log.Print(err)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type output struct {
	Label         string              `json:"label"`
	Arguments     []string            `json:"arguments"`
	Prerequisites map[string][]string `json:"prerequisites,omitempty"`
}

func newOutput(lbl label.Label, a testaction.Action) output {
	o := output{Label: lbl.String(), Arguments: a.Arguments}
	for attr, deps := range a.Prerequisites {
		if o.Prerequisites == nil {
			o.Prerequisites = make(map[string][]string)
		}
		for _, d := range deps {
			o.Prerequisites[attr] = append(o.Prerequisites[attr], d.String())
		}
	}
	return o
}
