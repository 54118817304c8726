package main

import "postit/internal/cli"

func main() {
	cli.Execute()
}
