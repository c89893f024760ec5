package main

import "github.com/compkit/compkit/pkg/cmd"

func main() {
	cmd.Execute()
}
