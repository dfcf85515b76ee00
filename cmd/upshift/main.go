package main

import "github.com/upshift-tools/upshift/pkg/cli"

func main() {
	cli.Execute()
}
