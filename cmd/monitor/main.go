package main

import "github.com/vietddude/aleph-monitor/internal/cli"

func main() {
	cli.Execute()
}
