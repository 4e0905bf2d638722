package main

import "github.com/sandeepkv93/routined/internal/cli"

func main() {
	cli.Execute()
}
