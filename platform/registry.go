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

package platform

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/bazelbuild/bazel-gazelle/label"
	"github.com/bazelbuild/buildtools/build"
)

// ErrNotFound is returned by [Registry.Lookup] for platforms that were never
// registered.
var ErrNotFound = errors.New("platform not found")

// Registry holds platform definitions loaded from BUILD files.  Adding files
// isn’t safe for concurrent use, but Lookup is once all files are added.
type Registry struct {
	defs map[label.Label]definition
}

type definition struct {
	constraints []label.Label
	parent      label.Label // label.NoLabel if none
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[label.Label]definition)}
}

// AddFile registers all platform rules in the given BUILD file.  pkg is the
// name of the Bazel package that contains the file; relative labels in the
// file are resolved against it.  If AddFile returns an error, it doesn’t
// register any platform from the file.
func (r *Registry) AddFile(filename, pkg string, data []byte) error {
	f, err := build.ParseBuild(filename, data)
	if err != nil {
		return err
	}
	type named struct {
		lbl label.Label
		def definition
	}
	var defs []named
	inFile := make(map[label.Label]bool)
	for _, rule := range f.Rules("platform") {
		name := rule.Name()
		if name == "" {
			return fmt.Errorf("%s: platform rule without name", filename)
		}
		lbl := label.New("", pkg, name)
		var def definition
		values, err := stringsAttr(rule, "constraint_values")
		if err != nil {
			return fmt.Errorf("%s: %w", lbl, err)
		}
		for _, s := range values {
			v, err := parseRel(s, pkg)
			if err != nil {
				return fmt.Errorf("%s: invalid constraint value: %w", lbl, err)
			}
			def.constraints = append(def.constraints, v)
		}
		checkSettings(lbl, def.constraints)
		parents, err := stringsAttr(rule, "parents")
		if err != nil {
			return fmt.Errorf("%s: %w", lbl, err)
		}
		switch len(parents) {
		case 0:
		case 1:
			p, err := parseRel(parents[0], pkg)
			if err != nil {
				return fmt.Errorf("%s: invalid parent: %w", lbl, err)
			}
			def.parent = p
		default:
			return fmt.Errorf("%s: only one parent platform is allowed, got %s", lbl, strings.Join(parents, ", "))
		}
		if _, dup := r.defs[key(lbl)]; dup || inFile[lbl] {
			return fmt.Errorf("platform %s defined more than once", lbl)
		}
		inFile[lbl] = true
		defs = append(defs, named{lbl, def})
	}
	for _, d := range defs {
		r.defs[key(d.lbl)] = d.def
	}
	return nil
}

// stringsAttr returns the value of a string list attribute.  Values that
// aren’t list literals of string literals, such as variables, are an error.
func stringsAttr(rule *build.Rule, name string) ([]string, error) {
	expr := rule.Attr(name)
	if expr == nil {
		return nil, nil
	}
	s := build.Strings(expr)
	if s == nil {
		return nil, fmt.Errorf("unsupported value for %s: %s", name, build.FormatString(expr))
	}
	return s, nil
}

// AddFileFromDisk reads the named BUILD file and passes it to AddFile.
func (r *Registry) AddFileFromDisk(filename, pkg string) error {
	b, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return r.AddFile(filename, pkg, b)
}

// Add registers a platform that isn’t defined in a BUILD file.
func (r *Registry) Add(p ExecutionPlatform) error {
	return r.add(p.Label, definition{constraints: p.Constraints})
}

func (r *Registry) add(lbl label.Label, def definition) error {
	k := key(lbl)
	if _, dup := r.defs[k]; dup {
		return fmt.Errorf("platform %s defined more than once", lbl)
	}
	r.defs[k] = def
	return nil
}

// Lookup returns the platform with the given label.  Constraint values
// inherited from parent platforms are included unless the platform overrides
// them with a value for the same constraint setting.  Lookup returns an error
// wrapping [ErrNotFound] if the platform or one of its parents is unknown.
func (r *Registry) Lookup(lbl label.Label) (ExecutionPlatform, error) {
	var chain []definition
	seen := make(map[label.Label]bool)
	for cur := key(lbl); cur != label.NoLabel; {
		if seen[cur] {
			return ExecutionPlatform{}, fmt.Errorf("platform %s: cycle in parents at %s", lbl, cur)
		}
		seen[cur] = true
		def, ok := r.defs[cur]
		if !ok {
			if len(chain) == 0 {
				return ExecutionPlatform{}, fmt.Errorf("%w: %s", ErrNotFound, lbl)
			}
			return ExecutionPlatform{}, fmt.Errorf("platform %s: parent %w: %s", lbl, ErrNotFound, cur)
		}
		chain = append(chain, def)
		cur = key(def.parent)
	}
	// Apply the root ancestor first so that descendants win.
	var constraints []label.Label
	index := make(map[setting]int)
	for i := len(chain) - 1; i >= 0; i-- {
		for _, v := range chain[i].constraints {
			s := settingOf(v)
			if j, ok := index[s]; ok {
				constraints[j] = v
				continue
			}
			index[s] = len(constraints)
			constraints = append(constraints, v)
		}
	}
	return ExecutionPlatform{Label: lbl, Constraints: constraints}, nil
}

// setting approximates the constraint setting of a constraint value by its
// package, which matches the layout of the @platforms repository.
type setting struct{ repo, pkg string }

func (s setting) String() string {
	if s.repo == "" {
		return "//" + s.pkg
	}
	return "@" + s.repo + "//" + s.pkg
}

func settingOf(value label.Label) setting { return setting{repoName(value.Repo), value.Pkg} }

// key drops the spelling of the repository name so that @@repo and @repo find
// the same platform.
func key(l label.Label) label.Label { return label.New(l.Repo, l.Pkg, l.Name) }

func parseRel(s, pkg string) (label.Label, error) {
	l, err := label.Parse(s)
	if err != nil {
		return label.NoLabel, err
	}
	return l.Abs("", pkg), nil
}

// checkSettings logs constraint settings that a single platform rule sets more
// than once.  Bazel rejects these; we keep the last value.
func checkSettings(lbl label.Label, values []label.Label) {
	seen := make(map[setting]bool)
	for _, v := range values {
		s := settingOf(v)
		if seen[s] {
			log.Printf("%s: multiple values for constraint setting %s", lbl, s)
		}
		seen[s] = true
	}
}
