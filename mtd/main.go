// Command mtd keeps a margin trade diary: positions bought on margin, their
// closures, and the interest and profit they make.
//
// Shell completion is installed with COMP_INSTALL=1 mtd.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/diary/cmd"
	"github.com/etnz/diary/docs"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	name := path.Base(os.Args[0])
	completion(name).Complete(name)

	commander := subcommands.NewCommander(flag.CommandLine, name)
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// completion describes the subcommands and their flags to the shell.
func completion(name string) *complete.Command {
	root := &complete.Command{
		Sub:   map[string]*complete.Command{},
		Flags: flagPredictors(flag.CommandLine),
	}
	for _, c := range cmd.Commands {
		fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(fs)
		sub := &complete.Command{Flags: flagPredictors(fs)}
		switch c.Name() {
		case "import":
			sub.Args = predict.Files("*.json")
		case "topic":
			if topics, err := docs.GetAllTopics(); err == nil {
				sub.Args = predict.Set(topics)
			}
		}
		root.Sub[c.Name()] = sub
	}
	root.Sub["help"] = &complete.Command{Args: predict.Set(subNames())}
	return root
}

func subNames() []string {
	names := make([]string, 0, len(cmd.Commands))
	for _, c := range cmd.Commands {
		names = append(names, c.Name())
	}
	return names
}

func flagPredictors(fs *flag.FlagSet) map[string]complete.Predictor {
	flags := map[string]complete.Predictor{}
	fs.VisitAll(func(f *flag.Flag) {
		if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			flags[f.Name] = predict.Nothing
			return
		}
		switch f.Name {
		case "config":
			flags[f.Name] = predict.Files("*.yaml")
		case "journal":
			flags[f.Name] = predict.Files("*.jsonl")
		case "database":
			flags[f.Name] = predict.Files("*.db")
		case "log-level":
			flags[f.Name] = predict.Set{"debug", "info", "warn", "error", "disabled"}
		case "period":
			flags[f.Name] = predict.Set{"daily", "weekly", "monthly", "quarterly", "yearly"}
		default:
			flags[f.Name] = predict.Something
		}
	})
	return flags
}
