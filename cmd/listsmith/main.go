package main

import (
	"os"

	"github.com/solatis/listsmith/cmd/listsmith/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
