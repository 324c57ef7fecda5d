package main

import "github.com/mcoot/crosswordgame-daily/internal/cli"

func main() {
	cli.Execute()
}
