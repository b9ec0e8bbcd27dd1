// Package main provides the risk-engine command: an HTTP server and offline
// tooling around the survey scoring engine.
package main

import (
	"flag"
	"fmt"
	"os"
)

func main() {
	// glog writes to stderr rather than temp files.
	_ = flag.Set("logtostderr", "true")

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
