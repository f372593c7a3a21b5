// Package main is the entry point for the gcp-testing-agent application
package main

import (
	"github.com/oktay-be/gcp-testing-agent/cmd"
)

func main() {
	cmd.Execute()
}
