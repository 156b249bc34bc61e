// Package main is the single-binary entrypoint for partnergate.
package main

import "github.com/partnergate/partnergate/internal/cli"

// version is set at build time via -ldflags.
var version = "0.1.1"

func main() {
	cli.Execute(version)
}
