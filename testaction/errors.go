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
	"errors"
	"fmt"
	"strings"

	"github.com/bazelbuild/bazel-gazelle/label"
)

var (
	// ErrMissingPlatform means that no execution platform could be
	// resolved for the build.
	ErrMissingPlatform = errors.New("no execution platform resolved")

	// ErrMalformedCoverageTarget means that coverage collection is
	// enabled, but the coverage merger of the toolchain isn’t a valid
	// absolute label.
	ErrMalformedCoverageTarget = errors.New("malformed coverage merger target")

	// ErrMalformedTarget means that the test target itself can’t be run,
	// for example because it has no sources.
	ErrMalformedTarget = errors.New("malformed test target")
)

// ConfigError reports a configuration defect for a single test target.  Err
// is one of the sentinel errors in this package and can be checked with
// [errors.Is].  Configuration errors are never transient.
type ConfigError struct {
	Target     label.Label
	Invocation string // empty if unknown
	Err        error
	Detail     string
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString(e.Target.String())
	if e.Invocation != "" {
		fmt.Fprintf(&b, " (invocation %s)", e.Invocation)
	}
	fmt.Fprintf(&b, ": %s", e.Err)
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	return b.String()
}

func (e *ConfigError) Unwrap() error { return e.Err }

func configError(t Target, cfg Config, err error, format string, args ...any) *ConfigError {
	return &ConfigError{
		Target:     t.Label,
		Invocation: cfg.InvocationID,
		Err:        err,
		Detail:     fmt.Sprintf(format, args...),
	}
}
