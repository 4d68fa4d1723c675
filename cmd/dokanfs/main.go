package main

import "github.com/marmos91/dokanfs/cmd/dokanfs/cmd"

func main() {
	cmd.Execute()
}
