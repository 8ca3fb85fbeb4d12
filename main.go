package main

import "github.com/endrorytm/Topos/cmd"

func main() {
	cmd.Execute()
}
