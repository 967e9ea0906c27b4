package main

import "github.com/nftex/fill-engine/cmd"

func main() {
	cmd.Execute()
}
