// Command lirashield tracks the real return of a TRY portfolio against the
// USD/TRY rate and Turkish consumer prices.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"

	"github.com/google/subcommands"
	"github.com/yaman-yucel/lirashield/cmd"
)

func main() {
	name := path.Base(os.Args[0])
	commander := subcommands.NewCommander(flag.CommandLine, name)
	commander.Register(commander.HelpCommand(), "help")
	commander.Register(commander.FlagsCommand(), "help")
	commander.Register(commander.CommandsCommand(), "help")
	cmd.Register(commander)

	cmd.Complete(commander, flag.CommandLine, name)
	flag.Parse()

	if err := cmd.Setup(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(int(subcommands.ExitFailure))
	}

	if sub := flag.Arg(0); sub != "" && !registered(commander, sub) {
		if ran, code := cmd.RunExtension(sub, flag.Args()[1:]); ran {
			os.Exit(code)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}

// registered reports whether name is a built in subcommand.
func registered(c *subcommands.Commander, name string) bool {
	found := false
	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		if cmd.Name() == name {
			found = true
		}
	})
	return found
}
