package main

import "github.com/oshokin/emergency-dispatch/cmd/dispatch-server/cmd"

func main() {
	cmd.Execute()
}
