package main

import "github.com/example/fieldbook/cmd"

func main() {
	cmd.Execute()
}
