package main

import "github.com/jswain/partita/cmd"

func main() {
	cmd.Execute()
}
