package main

import "github.com/pfrederiksen/scoutteam/internal/cli"

func main() {
	cli.Execute()
}
