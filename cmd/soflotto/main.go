package main

import (
	"os"

	"github.com/lugondev/go-soflotto/cmd/soflotto/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
