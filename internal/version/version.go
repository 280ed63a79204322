// Package version carries build metadata stamped in at link time.
package version

import "runtime/debug"

// Set via -ldflags at release build time.
var (
	Version   = ""
	Commit    = ""
	BuildTime = ""
)

type Info struct {
	Version   string
	Commit    string
	BuildTime string
}

// Resolve fills unset fields from the embedded build info when the
// binary was built inside a module checkout.
func Resolve() Info {
	out := Info{Version: Version, Commit: Commit, BuildTime: BuildTime}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if out.Commit == "" {
					out.Commit = s.Value
				}
			case "vcs.time":
				if out.BuildTime == "" {
					out.BuildTime = s.Value
				}
			}
		}
	}
	if out.Version == "" {
		out.Version = "dev"
	}
	return out
}

// String renders "version (shortcommit)".
func String() string {
	info := Resolve()
	if info.Commit == "" {
		return info.Version
	}
	return info.Version + " (" + short(info.Commit) + ")"
}

func short(c string) string {
	if len(c) <= 12 {
		return c
	}
	return c[:12]
}
