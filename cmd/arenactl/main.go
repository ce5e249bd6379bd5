package main

import (
	"github.com/ciocnim/arena/internal/cli"
)

func main() {
	cli.Execute()
}
