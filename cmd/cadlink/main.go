package main

import "github.com/cadlink-project/cadlink/internal/cli"

func main() {
	cli.Execute()
}
