package main

import (
	"github.com/luma/natscope/cmd"
)

func main() {
	cmd.Execute()
}
