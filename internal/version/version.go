// Package version holds the build version of tsprune.
package version

// Overridden at build time:
// go build -ldflags "-X tsprune/internal/version.Version=0.2.0 -X tsprune/internal/version.Commit=abc123"
var (
	Version   = "0.1.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns the version with a short commit suffix when one is known.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns the version, commit and build date on separate lines.
func Full() string {
	return "tsprune version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate
}
