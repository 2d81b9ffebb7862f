package main

import "pricelens/internal/cli"

func main() {
	cli.Execute()
}
