package main

import (
	"github.com/rentably/rent-collection/cmd"
)

func main() {
	cmd.Execute()
}
