package main

import "github.com/samsaffron/buddy-render/cmd"

func main() {
	cmd.Execute()
}
