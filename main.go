package main

import "github.com/gnames/gnflore/cmd"

func main() {
	cmd.Execute()
}
