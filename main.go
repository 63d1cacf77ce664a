package main

import (
	"os"

	"github.com/spigell/toolmatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
