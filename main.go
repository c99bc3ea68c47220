package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/rs/zerolog"

	quaestor "github.com/input-output-hk/quaestor/src"
	"github.com/input-output-hk/quaestor/src/config"
	"github.com/input-output-hk/quaestor/src/domain"
)

var buildVersion = "dev"
var buildCommit = "dirty"

func main() {
	args := &CLI{}
	parser, err := parseArgs(args)
	abort(parser, err)

	debug := flag.Bool("debug", args.Debug, "sets log level to debug")
	logger := config.ConfigureLogger(*debug)

	domain.BuildInfo.Version = buildVersion
	domain.BuildInfo.Commit = buildCommit

	abort(parser, Run(parser, args, logger))
}

type CLI struct {
	Debug   bool                 `arg:"--debug" help:"debugging output"`
	Start   *quaestor.StartCmd   `arg:"subcommand:start" help:"run the pipeline and the review API"`
	Preview *quaestor.PreviewCmd `arg:"subcommand:preview" help:"render the test artifacts of a local specification"`
}

func Version() string {
	return fmt.Sprintf("%s (%s)", buildVersion, buildCommit)
}

func (CLI) Version() string {
	return fmt.Sprintf("quaestor %s", Version())
}

func abort(parser *arg.Parser, err error) {
	switch err {
	case nil:
		return
	case arg.ErrHelp:
		parser.WriteHelp(os.Stderr)
		os.Exit(0)
	case arg.ErrVersion:
		fmt.Fprintln(os.Stdout, Version())
		os.Exit(0)
	default:
		fmt.Fprint(os.Stderr, err, "\n")
		os.Exit(1)
	}
}

func parseArgs(args *CLI) (parser *arg.Parser, err error) {
	parser, err = arg.NewParser(arg.Config{}, args)
	if err != nil {
		return
	}

	err = parser.Parse(os.Args[1:])
	return
}

func Run(parser *arg.Parser, args *CLI, logger *zerolog.Logger) error {
	switch {
	case args.Start != nil:
		return args.Start.Run(logger)
	case args.Preview != nil:
		return args.Preview.Run(logger)
	default:
		parser.WriteHelp(os.Stderr)
	}
	return nil
}
