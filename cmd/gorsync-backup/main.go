// Package main is the entry point for gorsync-backup.
package main

import (
	"os"

	"github.com/fgeck/gorsync-backup/internal/exitcode"
)

func main() {
	os.Exit(exitcode.FromError(Execute()))
}
