package main

import "github.com/jrsteele09/rdp-proxy/cli"

func main() {
	cli.Execute()
}
