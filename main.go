package main

import (
	"github.com/calyptra/fnchat/cmd"
)

func main() {
	cmd.Execute()
}
