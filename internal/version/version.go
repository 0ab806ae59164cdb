// Package version reports build metadata stamped in at link time. The
// Makefile passes -X flags for each variable below; a plain `go build`
// leaves the development defaults in place.
package version

import (
	"runtime"
	"strconv"
)

// Set via -ldflags "-X github.com/dropfy/dropfy-api/internal/version.Version=...".
var (
	Version = "0.0.0-dev"
	Commit  = "unknown"
	Date    = "unknown"
	Dirty   = "false"
)

// Info is the resolved build metadata of the running binary, as served
// by the health endpoint and logged at startup.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	Dirty     bool   `json:"dirty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get resolves the stamped variables into an Info.
func Get() Info {
	dirty, _ := strconv.ParseBool(Dirty)
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		Dirty:     dirty,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Short is the version alone, suffixed with -dirty for unclean builds.
// Used for the X-API-Version header and the OpenAPI document version.
func (i Info) Short() string {
	if i.Dirty {
		return i.Version + "-dirty"
	}
	return i.Version
}

// String is the long form used in startup logs.
func (i Info) String() string {
	s := i.Version + " (" + i.Commit
	if i.Dirty {
		s += "-dirty"
	}
	return s + ") built " + i.Date
}
