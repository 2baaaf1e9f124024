package main

import "github.com/tlanger/edgebackup/cmd"

func main() {
	cmd.Execute()
}
