// Package buildinfo carries version metadata stamped in at link time:
//
//	go build -ldflags "-X mtga-analyzer/backend/internal/buildinfo.Version=v0.1.0"
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func String() string {
	return fmt.Sprintf("mtga-analyzer %s (commit=%s, date=%s)", Version, Commit, Date)
}
