// Command wirebom converts parsed schematics into wire bills of materials
// from the command line.
package main

import "github.com/harnesslab/wirebom/cmd/wirebom/cmd"

func main() {
	cmd.Execute()
}
