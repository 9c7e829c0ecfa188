package main

import "github.com/vendo-org/vendo/cmd"

func main() {
	cmd.Execute()
}
