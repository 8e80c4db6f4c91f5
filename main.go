package main

import (
	"os"

	"github.com/okarpov/skillfit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
