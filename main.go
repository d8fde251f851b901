package main

import "github.com/notargets/meshmap/cmd"

func main() {
	cmd.Execute()
}
