package main

import (
	"github.com/monshunter/ohmydeploy/cmd/ohmydeploy/app"
	"github.com/monshunter/ohmydeploy/pkg/log"
)

// Version information set by build-time LDFLAGS
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func main() {
	app.SetVersionInfo(Version, BuildTime, GoVersion)

	if err := app.Run(); err != nil {
		log.Fatalf("Error: %s", app.FormatError(err))
	}
}
