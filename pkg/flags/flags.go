// Package flags holds the flag handling common to every lineemu
// subcommand: a -log-level flag and a -version flag, parsed the same
// way across every daemon entrypoint.
package flags

import (
	"flag"
	"fmt"
	"os"

	"github.com/dm-line/lineemu/pkg/version"
	log "github.com/sirupsen/logrus"
)

// AddLogLevel registers -log-level and -version on cmd and returns
// accessors resolved after cmd.Parse.
func AddLogLevel(cmd *flag.FlagSet) (logLevel *string, printVersion *bool) {
	logLevel = cmd.String("log-level", log.InfoLevel.String(),
		"log level, must be one of: panic, fatal, error, warn, info, debug")
	printVersion = cmd.Bool("version", false, "print version and exit")
	return
}

// ConfigureAndParse parses cmd against args, then applies -log-level
// and handles -version, in that order. Call after all other flags on
// cmd have been registered.
func ConfigureAndParse(cmd *flag.FlagSet, args []string) {
	logLevel, printVersion := AddLogLevel(cmd)

	if err := cmd.Parse(args); err != nil {
		log.Fatalf("failed to parse flags: %s", err)
	}

	setLogLevel(*logLevel)
	maybePrintVersionAndExit(*printVersion)
}

func setLogLevel(logLevel string) {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		log.Fatalf("invalid log-level: %s", logLevel)
	}
	log.SetLevel(level)
}

func maybePrintVersionAndExit(printVersion bool) {
	if printVersion {
		fmt.Println(version.Version)
		os.Exit(0)
	}
	log.Infof("running version %s", version.Version)
}
