package main

import (
	"github.com/nodedesk/nodedesk/src/cmd"
)

func main() {
	cmd.Execute()
}
