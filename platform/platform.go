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

// Package platform describes Bazel execution platforms and classifies them by
// operating system.  See https://bazel.build/extending/platforms.
package platform

import (
	"slices"
	"strings"

	"github.com/bazelbuild/bazel-gazelle/label"
)

// ExecutionPlatform is a resolved execution platform: a label together with
// the constraint values it declares, including inherited ones.  Callers must
// not modify the Constraints slice.
type ExecutionPlatform struct {
	Label       label.Label
	Constraints []label.Label
}

// HasConstraint reports whether the platform declares the given constraint
// value.  Repository names are compared by module name, so @platforms,
// @@platforms, @@platforms+ (Bazel 8) and @@platforms~ or @@platforms~0.0.10
// (Bazel 7) all match.
func (p ExecutionPlatform) HasConstraint(value label.Label) bool {
	return slices.ContainsFunc(p.Constraints, func(c label.Label) bool {
		return sameLabel(c, value)
	})
}

// Class is the coarse operating system family of an execution platform.  The
// zero value is Posix.
type Class int

const (
	// Posix platforms run tests through a shell setup script.
	Posix Class = iota
	// Windows platforms run tests through a native wrapper binary.
	Windows
)

func (c Class) String() string {
	if c == Windows {
		return "windows"
	}
	return "posix"
}

// WindowsConstraint is the constraint value that marks Windows platforms.
var WindowsConstraint = label.New("platforms", "os", "windows")

// Host is the execution platform used when no host platform is configured.
var Host = ExecutionPlatform{
	Label:       label.New("local_config_platform", "", "host"),
	Constraints: []label.Label{label.New("platforms", "os", "linux")},
}

// Classify returns Windows if the platform has the @platforms//os:windows
// constraint and Posix otherwise.  Platforms without any operating system
// constraint are Posix.
func Classify(p ExecutionPlatform) Class {
	if p.HasConstraint(WindowsConstraint) {
		return Windows
	}
	return Posix
}

func sameLabel(a, b label.Label) bool {
	return repoName(a.Repo) == repoName(b.Repo) && a.Pkg == b.Pkg && a.Name == b.Name
}

// repoName strips the suffix that Bzlmod appends to canonical repository
// names.  Apparent names never contain “+” or “~”.
func repoName(repo string) string {
	if i := strings.IndexAny(repo, "+~"); i >= 0 {
		return repo[:i]
	}
	return repo
}
