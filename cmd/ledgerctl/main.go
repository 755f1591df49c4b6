// ledgerctl はMCPサーバーと同じツールレジストリをプロセス内で実行する運用CLI
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	for _, c := range ledgerCommands {
		commander.Register(c, "ledger")
	}
	commander.Register(&convertCmd{}, "conversion")
	commander.Register(&tokenCmd{}, "auth")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
