package main

import "github.com/newsiq/newsiq/cmd"

func main() {
	cmd.Execute()
}
