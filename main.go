package main

import "github.com/verdantlab/phenotrack/cmd"

func main() {
	cmd.Execute()
}
