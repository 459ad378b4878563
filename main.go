package main

import "clirouter/internal/cli"

func main() {
	cli.Execute()
}
