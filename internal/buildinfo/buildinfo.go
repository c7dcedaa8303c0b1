// Package buildinfo carries release metadata set at link time:
//
//	go build -ldflags "-X github.com/aidanlsb/proveit/internal/buildinfo.Version=v0.3.0"
//
// Local builds leave them empty and rely on runtime/debug build info.
package buildinfo

var (
	Version = ""
	Commit  = ""
	Date    = ""
)
