package main

import "github.com/geopde/propmat/cmd"

func main() {
	cmd.Execute()
}
