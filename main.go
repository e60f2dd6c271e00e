package main

import "github.com/supakorn-kn/propadmin/cli"

func main() {
	cli.Execute()
}
