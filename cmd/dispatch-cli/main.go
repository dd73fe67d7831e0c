package main

import "github.com/oshokin/emergency-dispatch/cmd/dispatch-cli/cmd"

func main() {
	cmd.Execute()
}
