package main

import "github.com/harrisonrobin/tomato/pkg/cli"

func main() {
	cli.Main()
}
