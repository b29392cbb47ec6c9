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

// Package testaction computes the test runner action for sh_test targets: the
// command line that starts the test through a platform-specific wrapper, and
// the prerequisites that the action depends on.  All functions are pure and
// safe for concurrent use.
package testaction

import (
	"fmt"
	"slices"

	"github.com/bazelbuild/bazel-gazelle/label"
	"github.com/phst/rules_shtest/platform"
)

// Config contains the build-wide settings of a single Bazel invocation.  It is
// never modified during resolution and may be shared between goroutines.
type Config struct {
	// CollectCodeCoverage corresponds to --collect_code_coverage.
	CollectCodeCoverage bool
	// InvocationID identifies the build in error messages.  It may be
	// empty.
	InvocationID string
}

// Attribute names in [Prerequisites].
const (
	DepsAttr           = "deps"
	DataAttr           = "data"
	CoverageMergerAttr = ":coverage_merger"
)

// Prerequisites maps attribute names to the targets they depend on.
type Prerequisites map[string][]label.Label

// Lookup returns the only prerequisite for the given attribute.  The boolean
// is false if the attribute is absent or has more than one value.
func (p Prerequisites) Lookup(attr string) (label.Label, bool) {
	if l := p[attr]; len(l) == 1 {
		return l[0], true
	}
	return label.NoLabel, false
}

// Action describes the test runner action for one target.  Arguments[0] is
// always the wrapper executable.
type Action struct {
	Arguments     []string
	Prerequisites Prerequisites
}

// Resolve classifies the execution platform p and assembles the test action.
// Unlike [platform.Classify], Resolve doesn’t fall back to a default if p is
// nil, but returns an error wrapping [ErrMissingPlatform].
func Resolve(t Target, p *platform.ExecutionPlatform, cfg Config, tc Toolchain) (Action, error) {
	if p == nil {
		return Action{}, configError(t, cfg, ErrMissingPlatform, "can’t select a test wrapper")
	}
	return Assemble(t, platform.Classify(*p), cfg, tc)
}

// Assemble returns the test action for the target t on a platform of the
// given class.  The wrapper comes first, followed by the test program and the
// args attribute of the target.  If coverage collection is enabled, the
// coverage merger of the toolchain becomes a prerequisite under
// [CoverageMergerAttr]; otherwise that attribute is absent.  The deps and data
// attributes are copied unchanged.
func Assemble(t Target, class platform.Class, cfg Config, tc Toolchain) (Action, error) {
	wrapper := tc.TestSetup
	if class == platform.Windows {
		wrapper = tc.TestWrapper
	}
	if wrapper == "" {
		return Action{}, configError(t, cfg, ErrMalformedTarget, "toolchain has no test wrapper for %s platforms", class)
	}
	exe := t.executable()
	if exe == "" {
		return Action{}, configError(t, cfg, ErrMalformedTarget, "no test program")
	}
	args := make([]string, 0, 2+len(t.Args))
	args = append(args, wrapper, exe)
	args = append(args, t.Args...)

	prereqs := make(Prerequisites)
	if len(t.Deps) > 0 {
		prereqs[DepsAttr] = slices.Clone(t.Deps)
	}
	if len(t.Data) > 0 {
		prereqs[DataAttr] = slices.Clone(t.Data)
	}
	if cfg.CollectCodeCoverage {
		merger, err := coverageMerger(tc)
		if err != nil {
			return Action{}, configError(t, cfg, ErrMalformedCoverageTarget, "%s", err)
		}
		prereqs[CoverageMergerAttr] = []label.Label{merger}
	}
	return Action{Arguments: args, Prerequisites: prereqs}, nil
}

func coverageMerger(tc Toolchain) (label.Label, error) {
	l, err := label.Parse(tc.CoverageMerger)
	if err != nil {
		return label.NoLabel, err
	}
	if l.Relative || l.Name == "" {
		return label.NoLabel, fmt.Errorf("label %s isn’t absolute", tc.CoverageMerger)
	}
	return l, nil
}
