package main

import (
	"os"

	"github.com/ome/omero-render/cmd"
)

var (
	version string
	commit  string
	date    string
)

func main() {
	os.Exit(cmd.ExecuteCLI(version, commit, date))
}
