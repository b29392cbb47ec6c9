// Copyright 2025, 2026 Philipp Stephani
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

// Package flagutil contains internal command-line flag types.
package flagutil

import (
	"flag"
	"fmt"
	"strings"

	"github.com/bazelbuild/bazel-gazelle/label"
	"github.com/bazelbuild/rules_go/go/runfiles"
)

// RunfileFlag defines a command-line flag in fs that receives a runfile
// location as returned by the Bazel $(rlocationpath …) construct and resolves
// it to a local filename using [runfiles.Rlocation].  The resolved filename is
// stored in the string that the return value points to; it stays empty if the
// flag isn’t given.
func RunfileFlag(fs *flag.FlagSet, name, usage string) *string {
	r := new(runfileFlagValue)
	fs.Var(r, name, usage)
	return (*string)(r)
}

type runfileFlagValue string

func (v runfileFlagValue) String() string {
	return string(v)
}

func (v *runfileFlagValue) Set(s string) error {
	p, err := runfiles.Rlocation(s)
	if err != nil {
		return err
	}
	*v = runfileFlagValue(p)
	return nil
}

// LabelFlag defines a command-line flag in fs whose value is an absolute Bazel
// label.  The label is label.NoLabel if the flag isn’t given.
func LabelFlag(fs *flag.FlagSet, name, usage string) *label.Label {
	r := new(labelFlagValue)
	fs.Var(r, name, usage)
	return (*label.Label)(r)
}

type labelFlagValue label.Label

func (v *labelFlagValue) String() string {
	if v == nil || label.Label(*v) == label.NoLabel {
		return ""
	}
	return label.Label(*v).String()
}

func (v *labelFlagValue) Set(s string) error {
	l, err := label.Parse(s)
	if err != nil {
		return err
	}
	if l.Relative {
		return fmt.Errorf("label %s must be absolute", s)
	}
	*v = labelFlagValue(l)
	return nil
}

// PackageFile is a BUILD file together with the name of its Bazel package.
type PackageFile struct {
	Pkg, File string
}

// PackageFilesFlag defines a repeatable command-line flag in fs with values of
// the form PKG=FILE.
func PackageFilesFlag(fs *flag.FlagSet, name, usage string) *[]PackageFile {
	r := new(packageFilesValue)
	fs.Var(r, name, usage)
	return (*[]PackageFile)(r)
}

type packageFilesValue []PackageFile

func (v *packageFilesValue) String() string {
	if v == nil {
		return ""
	}
	var s []string
	for _, f := range *v {
		s = append(s, f.Pkg+"="+f.File)
	}
	return strings.Join(s, ",")
}

func (v *packageFilesValue) Set(s string) error {
	pkg, file, ok := strings.Cut(s, "=")
	if !ok || file == "" {
		return fmt.Errorf("invalid value %q, want PKG=FILE", s)
	}
	*v = append(*v, PackageFile{strings.Trim(pkg, "/"), file})
	return nil
}
