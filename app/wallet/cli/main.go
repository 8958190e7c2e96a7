package main

import "github.com/noobcash/blockchain/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
