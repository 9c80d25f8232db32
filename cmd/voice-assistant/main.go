package main

import "voice-assistant-client/internal/cli"

func main() {
	cli.Execute()
}
