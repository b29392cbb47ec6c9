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

package platform_test

import (
	"testing"

	"github.com/bazelbuild/bazel-gazelle/label"
	"github.com/phst/rules_shtest/platform"
)

func TestClassify(t *testing.T) {
	for _, tc := range []struct {
		name        string
		constraints []string
		want        platform.Class
	}{
		{"empty", nil, platform.Posix},
		{"linux", []string{"@platforms//os:linux"}, platform.Posix},
		{"cpu only", []string{"@platforms//cpu:x86_64"}, platform.Posix},
		{"macos", []string{"@platforms//os:macos", "@platforms//cpu:arm64"}, platform.Posix},
		{"windows", []string{"@platforms//os:windows"}, platform.Windows},
		{"windows with cpu", []string{"@platforms//cpu:x86_64", "@platforms//os:windows"}, platform.Windows},
		{"canonical", []string{"@@platforms//os:windows"}, platform.Windows},
		{"canonical bazel 8", []string{"@@platforms+//os:windows"}, platform.Windows},
		{"canonical bazel 7", []string{"@@platforms~//os:windows"}, platform.Windows},
		{"canonical with version", []string{"@@platforms~0.0.10//os:windows"}, platform.Windows},
		{"canonical linux", []string{"@@platforms+//os:linux"}, platform.Posix},
		{"other repository", []string{"@my_platforms//os:windows"}, platform.Posix},
		{"other name", []string{"@platforms//os:windows_xp"}, platform.Posix},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := platform.ExecutionPlatform{Label: label.New("", "platforms", "test")}
			for _, s := range tc.constraints {
				l, err := label.Parse(s)
				if err != nil {
					t.Fatal(err)
				}
				p.Constraints = append(p.Constraints, l)
			}
			if got := platform.Classify(p); got != tc.want {
				t.Errorf("Classify(%v) = %s, want %s", tc.constraints, got, tc.want)
			}
		})
	}
}

func TestClassifyHost(t *testing.T) {
	if got := platform.Classify(platform.Host); got != platform.Posix {
		t.Errorf("Classify(Host) = %s, want posix", got)
	}
}

func TestClassString(t *testing.T) {
	if got := platform.Posix.String(); got != "posix" {
		t.Errorf("Posix.String() = %q", got)
	}
	if got := platform.Windows.String(); got != "windows" {
		t.Errorf("Windows.String() = %q", got)
	}
}
