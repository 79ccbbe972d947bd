package main

import (
	"github.com/microparty/microparty/internal/cli"
)

func main() {
	cli.Execute()
}
