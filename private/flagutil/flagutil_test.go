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

package flagutil

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/bazelbuild/bazel-gazelle/label"
	"github.com/google/go-cmp/cmp"
)

func TestFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	host := LabelFlag(fs, "host_platform", "")
	files := PackageFilesFlag(fs, "platforms", "")
	setup := RunfileFlag(fs, "test_setup", "")
	err := fs.Parse([]string{
		"--host_platform=//platforms:windows",
		"--platforms=platforms=/src/platforms/BUILD",
		"--platforms=//other/=BUILD.bazel",
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(*host, label.New("", "platforms", "windows")); diff != "" {
		t.Error("-got +want:\n", diff)
	}
	wantFiles := []PackageFile{
		{"platforms", "/src/platforms/BUILD"},
		{"other", "BUILD.bazel"},
	}
	if diff := cmp.Diff(*files, wantFiles); diff != "" {
		t.Error("-got +want:\n", diff)
	}
	if *setup != "" {
		t.Errorf("got test_setup %q, want empty", *setup)
	}
}

func TestFlagErrors(t *testing.T) {
	for _, args := range [][]string{
		{"--host_platform=:relative"},
		{"--platforms=no-equals-sign"},
		{"--platforms=pkg="},
	} {
		fs := flag.NewFlagSet("test", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		LabelFlag(fs, "host_platform", "")
		PackageFilesFlag(fs, "platforms", "")
		if err := fs.Parse(args); err == nil {
			t.Errorf("Parse(%q) succeeded unexpectedly", args)
		}
	}
}

func TestRunfileFlag(t *testing.T) {
	manifest := filepath.Join(t.TempDir(), "MANIFEST")
	content := "toolchain/tools/test/test-setup.sh /opt/toolchain/test-setup.sh\n"
	if err := os.WriteFile(manifest, []byte(content), 0400); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RUNFILES_MANIFEST_FILE", manifest)
	t.Setenv("RUNFILES_DIR", "")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	setup := RunfileFlag(fs, "test_setup", "")
	if err := fs.Parse([]string{"--test_setup=toolchain/tools/test/test-setup.sh"}); err != nil {
		t.Fatal(err)
	}
	if got, want := *setup, "/opt/toolchain/test-setup.sh"; got != want {
		t.Errorf("got test_setup %q, want %q", got, want)
	}
}
