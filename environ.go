package main

import (
	"fmt"
	"io"
	"os"
)

type envVar struct {
	suffix string
	desc   string
}

// recognized environment variables, in display order
var envVars = []envVar{
	{"_CONFIG_DIR", "Directory searched first for the .ini config file and the .hosts file."},
	{"_HOST", "Default RCON server host, overridden by [-H|--host]."},
	{"_PORT", "Default RCON server port, overridden by [-P|--port]."},
	{"_PASS", "Default RCON server password, overridden by [-p|--pass]."},
}

// printEnv dumps the recognized environment variables with their current
// values (--print-env).
func printEnv(w io.Writer, prefix string) {
	for _, ev := range envVars {
		name := prefix + ev.suffix
		value, set := os.LookupEnv(name)
		if !set {
			value = "(unset)"
		}
		fmt.Fprintf(w, "%-24s %-20s %s\n", name, value, ev.desc)
	}
}
