// Package main provides the qpick command.
package main

import "github.com/aydenstechdungeon/qpick/cli"

// Version is set at build time
var Version = "dev"

func main() {
	cli.Execute(Version)
}
