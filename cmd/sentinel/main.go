// Package main is the sentinel CLI.
//
//	sentinel backtest --start 2023-01-01 --end 2023-12-31
//	sentinel signal BA LUV
//	sentinel watch
package main

import (
	"os"

	"BasketSentinel/cmd/sentinel/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
