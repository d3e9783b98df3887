package main

import (
	"github.com/meowai/catscan/cmd/catscan/cmd"
)

func main() {
	cmd.Execute()
}
