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

package testaction

import (
	"cmp"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Toolchain names the helper tools that test actions depend on.
type Toolchain struct {
	// TestSetup is the shell script that starts tests on POSIX platforms.
	TestSetup string `yaml:"test_setup"`
	// TestWrapper is the native binary that starts tests on Windows.
	TestWrapper string `yaml:"test_wrapper"`
	// CoverageMerger is the label of the target that merges coverage
	// data.  It’s only used when coverage collection is enabled.
	CoverageMerger string `yaml:"coverage_merger"`
}

// DefaultToolchain returns the tools that ship with the toolchain
// repository.
func DefaultToolchain() Toolchain {
	return Toolchain{
		TestSetup:      "external/toolchain/tools/test/test-setup.sh",
		TestWrapper:    "external/toolchain/tools/test/test_wrapper_bin",
		CoverageMerger: "@toolchain//tools/test:coverage_merger",
	}
}

// LoadToolchain reads a YAML toolchain description from r.  Fields that the
// description leaves out keep their values from [DefaultToolchain].  Unknown
// fields are an error.
func LoadToolchain(r io.Reader) (Toolchain, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var tc Toolchain
	if err := dec.Decode(&tc); err != nil && !errors.Is(err, io.EOF) {
		return Toolchain{}, fmt.Errorf("invalid toolchain description: %w", err)
	}
	def := DefaultToolchain()
	return Toolchain{
		TestSetup:      cmp.Or(tc.TestSetup, def.TestSetup),
		TestWrapper:    cmp.Or(tc.TestWrapper, def.TestWrapper),
		CoverageMerger: cmp.Or(tc.CoverageMerger, def.CoverageMerger),
	}, nil
}
