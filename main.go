package main

import (
	"tunecrate/cmd"
)

func main() {
	cmd.Execute()
}
