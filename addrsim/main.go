// Package main runs the addrsim command-line tool.
package main

import (
	"github.com/tebeka/atexit"

	"github.com/sarchlab/addrsim/addrsim/cmd"
)

func main() {
	cmd.Execute()
	atexit.Exit(0)
}
