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
	"fmt"
	"log"
	"path"
	"slices"
	"strings"

	"github.com/bazelbuild/bazel-gazelle/label"
	"github.com/bazelbuild/bazel-gazelle/rule"
	"github.com/bazelbuild/buildtools/build"
)

// Target is a test target as declared in a BUILD file.  All labels are
// absolute.
type Target struct {
	Label label.Label
	Kind  string
	Srcs  []label.Label
	Args  []string
	Deps  []label.Label
	Data  []label.Label
}

const testKind = "sh_test"

// executable returns the exec-root-relative filename of the test program, or
// the empty string if the target has no sources.
func (t Target) executable() string {
	if len(t.Srcs) == 0 {
		return ""
	}
	src := t.Srcs[0]
	if src.Repo != "" {
		return path.Join("external", src.Repo, src.Pkg, src.Name)
	}
	return path.Join(src.Pkg, src.Name)
}

// LoadTargets returns the sh_test targets declared in a BUILD file.  filename
// is only used for error messages.  pkg is the name of the Bazel package that
// contains the file (the empty string for the root package).  The targets are
// sorted by label.
func LoadTargets(filename, pkg string, data []byte) ([]Target, error) {
	f, err := rule.LoadData(filename, pkg, data)
	if err != nil {
		return nil, err
	}
	return targets(f)
}

// LoadTargetsFile is like [LoadTargets], but reads the BUILD file from disk.
func LoadTargetsFile(filename, pkg string) ([]Target, error) {
	f, err := rule.LoadFile(filename, pkg)
	if err != nil {
		return nil, err
	}
	return targets(f)
}

func targets(f *rule.File) ([]Target, error) {
	var r []Target
	for _, ru := range f.Rules {
		if ru.Kind() != testKind {
			if strings.HasSuffix(ru.Kind(), "_test") {
				log.Printf("%s: skipping unsupported test rule %s of kind %s", f.Path, ru.Name(), ru.Kind())
			}
			continue
		}
		t, err := newTarget(f.Pkg, ru)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Path, err)
		}
		r = append(r, t)
	}
	slices.SortFunc(r, func(a, b Target) int {
		return cmp.Compare(a.Label.String(), b.Label.String())
	})
	return r, nil
}

func newTarget(pkg string, r *rule.Rule) (Target, error) {
	t := Target{
		Label: label.New("", pkg, r.Name()),
		Kind:  r.Kind(),
	}
	var err error
	if t.Args, err = stringsAttr(r, "args"); err != nil {
		return Target{}, fmt.Errorf("%s: %w", t.Label, err)
	}
	srcs, err := labelsAttr(r, "srcs", pkg)
	if err != nil {
		return Target{}, fmt.Errorf("%s: %w", t.Label, err)
	}
	// Like Bazel, we insist on exactly one source file; it’s the test
	// program.
	if len(srcs) != 1 {
		return Target{}, fmt.Errorf("%s: %w: %s requires exactly one source file, got %d", t.Label, ErrMalformedTarget, t.Kind, len(srcs))
	}
	t.Srcs = srcs
	if t.Deps, err = labelsAttr(r, "deps", pkg); err != nil {
		return Target{}, fmt.Errorf("%s: %w", t.Label, err)
	}
	if t.Data, err = labelsAttr(r, "data", pkg); err != nil {
		return Target{}, fmt.Errorf("%s: %w", t.Label, err)
	}
	return t, nil
}

// stringsAttr returns the value of a string list attribute.  Gazelle’s
// [rule.Rule.AttrStrings] drops values it can’t evaluate, such as variables
// or select expressions; we reject them instead so that no argument or
// dependency gets lost.
func stringsAttr(r *rule.Rule, name string) ([]string, error) {
	expr := r.Attr(name)
	if expr == nil {
		return nil, nil
	}
	s := build.Strings(expr)
	if s == nil {
		return nil, fmt.Errorf("%w: unsupported value for %s: %s", ErrMalformedTarget, name, build.FormatString(expr))
	}
	if len(s) == 0 {
		return nil, nil
	}
	return s, nil
}

func labelsAttr(r *rule.Rule, name, pkg string) ([]label.Label, error) {
	s, err := stringsAttr(r, name)
	if err != nil {
		return nil, err
	}
	l, err := parseLabels(s, pkg)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return l, nil
}

func parseLabels(attr []string, pkg string) ([]label.Label, error) {
	var r []label.Label
	for _, s := range attr {
		l, err := label.Parse(s)
		if err != nil {
			return nil, err
		}
		r = append(r, l.Abs("", pkg))
	}
	return r, nil
}
