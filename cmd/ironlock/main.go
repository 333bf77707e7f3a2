package main

import "github.com/jmcleod/ironlock/cmd/ironlock/cmd"

func main() {
	cmd.Execute()
}
