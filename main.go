package main

import "github.com/KaramelBytes/exprloom-cli/cmd"

func main() {
	cmd.Execute()
}
