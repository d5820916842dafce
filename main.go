package main

import "github.com/rodrigoprogmaster-prog/clinica/cmd"

func main() {
	cmd.Execute()
}
