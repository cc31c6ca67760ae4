// Package buildinfo carries version stamps set at link time, e.g.
//
//	go build -ldflags "-X github.com/Annarex/test-app-sub000/internal/buildinfo.Version=v1.2.0"
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String formats the stamps for --version.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
