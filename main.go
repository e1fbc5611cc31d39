package main

import (
	"labelops/cmd"
)

func main() {
	cmd.Execute()
}
