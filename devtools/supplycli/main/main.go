package main

import (
	"github.com/supplychain-dapp/supplychain-go/devtools/supplycli/commands"
	"os"
)

// supplycli products -config supplychain.json
// supplycli transfer -id 3 -to 0x... -config supplychain.json
// supplycli deploy -artifact artifacts/SupplyChain.json -config supplychain.json

func main() {
	os.Exit(commands.Run(os.Args[1:], commands.StdEnvironment()))
}
