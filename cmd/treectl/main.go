package main

import "shajara/cmd/treectl/cli"

func main() {
	cli.Execute()
}
