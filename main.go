package main

import (
	"os"

	"github.com/faylit/appshell/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
