package config

import (
	"flag"
	"fmt"
)

const HelpMessage = `ride-dispatch - ride dispatch and location coordination service

Usage:
  dispatch [flags]

Flags:
  -config-path string   Path to the config yaml file (default "config.yaml")
  -help                 Show this message

Every config value can also be set through environment variables; see
config.yaml for the variable names.
`

func PrintHelp() {
	if HelpMessage != "" {
		fmt.Printf("%s", HelpMessage)
	} else {
		flag.Usage()
	}
}
