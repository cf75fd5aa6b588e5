// Package version exposes build metadata injected with -ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// String is the version identifier handed to models, e.g. "1.4.0+3f2a9c1".
func (i Info) String() string {
	if i.Commit == "" || i.Commit == "unknown" {
		return i.Version
	}
	short := i.Commit
	if len(short) > 7 {
		short = short[:7]
	}
	return fmt.Sprintf("%s+%s", i.Version, short)
}
