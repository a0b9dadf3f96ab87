package main

import "github.com/vivekchamoli/legionaid/internal/cli"

func main() {
	cli.Execute()
}
