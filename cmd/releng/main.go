// releng packages and publishes ChromeDevTools plugin releases.
package main

import (
	"os"

	"github.com/chromedevtools/releng/internal/cli"
	"github.com/chromedevtools/releng/internal/version"
)

// Version information, overridden with -ldflags "-X main.Version=..."
var (
	Version   = "v0.1.0-dev"
	BuildTime = "unknown"
)

func main() {
	version.Version = Version
	version.BuildTime = BuildTime

	// cobra has already printed the error
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
