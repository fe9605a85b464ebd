// SPDX-License-Identifier: MIT
//
// Package build provides functionality to manage and retrieve build information
// for a Go application. It allows embedding metadata such as the application
// name, build timestamp, Git commit hash, and semantic version into the binary
// at compile time using linker flags:
//
//	go build -ldflags "-X mixmon/pkg/build.buildName=mixmon \
//	    -X mixmon/pkg/build.buildTime=$(date -u +%FT%TZ) \
//	    -X mixmon/pkg/build.buildCommit=$(git rev-parse --short HEAD) \
//	    -X mixmon/pkg/build.buildVersion=$(git describe --tags)"
package build

import (
	"errors"
	"fmt"
)

// DefaultName and DefaultDescription are used until Initialize succeeds.
const (
	DefaultName        = "mixmon"
	DefaultDescription = "Calibrated level monitor for live mixer inputs"
)

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// Package-level variables for build information. These are populated by -ldflags
// during compilation. Default values of "unknown" are used during development.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:        DefaultName,
		Description: DefaultDescription,
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "unknown",
	}
)

// Initialize validates and copies build information from ldflags variables
// into the buildFlags struct. Every missing flag is reported in the returned
// error; the flags that are present are still applied, so development
// builds keep working with partial information.
func Initialize() error {
	var errs []error

	if buildName == "" {
		errs = append(errs, fmt.Errorf("BuildName is required"))
	} else {
		buildFlags.Name = buildName
	}
	if buildTime == "" {
		errs = append(errs, fmt.Errorf("BuildTime is required"))
	} else {
		buildFlags.Time = buildTime
	}
	if buildCommit == "" {
		errs = append(errs, fmt.Errorf("BuildCommit is required"))
	} else {
		buildFlags.Commit = buildCommit
	}
	if buildVersion == "" {
		errs = append(errs, fmt.Errorf("BuildVersion is required"))
	} else {
		buildFlags.Version = buildVersion
	}

	return errors.Join(errs...)
}

// GetBuildFlags returns the current build information. Initialize()
// should be called first; until then the defaults are returned.
func GetBuildFlags() *ldFlags {
	return buildFlags
}

// String formats the build information for --version output.
func (f *ldFlags) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", f.Version, f.Commit, f.Time)
}
