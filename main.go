package main

import (
	"os"

	"github.com/talesin/civics100-sub000/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
