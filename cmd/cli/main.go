package main

import (
	"github.com/jeheap-analysis/cmd/cli/cmd"
)

func main() {
	cmd.Execute()
}
