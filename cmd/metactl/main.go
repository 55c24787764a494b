// Package main is the entry point for metactl, the metapress admin CLI.
package main

import "metapress/cmd/metactl/commands"

func main() {
	commands.Execute()
}
