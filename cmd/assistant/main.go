package main

import "incident-assistant/internal/cli"

func main() {
	cli.Execute()
}
