package main

import "github.com/andrescamacho/autopilot-go/internal/adapters/cli"

func main() {
	cli.Execute()
}
