// Command tranchectl manages the tranche set and prints reports from the
// command line. It shares stores and configuration with the bot.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	commander.Register(&listCmd{}, "tranches")
	commander.Register(&addCmd{}, "tranches")
	commander.Register(&updateCmd{}, "tranches")
	commander.Register(&dateCmd{}, "tranches")
	commander.Register(&deleteCmd{}, "tranches")

	commander.Register(&reportCmd{}, "analysis")
	commander.Register(&historyCmd{}, "analysis")
	commander.Register(&thresholdCmd{}, "analysis")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
