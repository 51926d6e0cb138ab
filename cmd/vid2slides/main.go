package main

import "github.com/devbush/vid2slides/internal/adapters/cli"

func main() {
	cli.Execute()
}
