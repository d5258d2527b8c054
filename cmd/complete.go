package cmd

import (
	"flag"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// flagPredictors complete the values of well known flags, others accept anything.
var flagPredictors = map[string]complete.Predictor{
	"class":  predict.Set{"fund", "stock"},
	"weight": predict.Set{"quantity", "cost"},
	"c":      predict.Set{"TRY", "USD"},
	"import": predict.Files("*.csv"),
	"export": predict.Files("*.csv"),
	"db":     predict.Files("*.db"),
}

func predictor(name string) complete.Predictor {
	if p, ok := flagPredictors[name]; ok {
		return p
	}
	return predict.Something
}

// completion describes the commands of c and their flags for shell completion.
func completion(c *subcommands.Commander, global *flag.FlagSet) *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: make(map[string]complete.Predictor),
	}
	global.VisitAll(func(f *flag.Flag) { root.Flags[f.Name] = predictor(f.Name) })

	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
		cmd.SetFlags(fs)
		sub := &complete.Command{Flags: make(map[string]complete.Predictor)}
		fs.VisitAll(func(f *flag.Flag) { sub.Flags[f.Name] = predictor(f.Name) })
		root.Sub[cmd.Name()] = sub
	})
	return root
}

// Complete answers a shell completion request and exits when the process was
// started by the shell to complete name. It does nothing otherwise.
//
// Install it with: COMP_INSTALL=1 lirashield
func Complete(c *subcommands.Commander, global *flag.FlagSet, name string) {
	completion(c, global).Complete(name)
}
