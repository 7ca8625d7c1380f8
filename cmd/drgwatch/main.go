package main

// Follows the save directory and prints a summary every time the game saves.
//
// example usage:
//
// drgwatch --dir "C:\Program Files (x86)\Steam\steamapps\common\Deep Rock Galactic\FSD\Saved\SaveGames"
// drgwatch scan

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"drgedit/config"
	"drgedit/savefile"
	"drgedit/types"
	"drgedit/watch"
)

var argInfo = []struct {
	arg     string
	subargs int
	desc    string
}{
	{"help", 0, "Display this possibly helpful info"},
	{"check", 0, "Sanity check"},
	{"scan", 0, "Summarize every save in the directory once"},
	{"show", 1, "Summarize one save"},
	{"run", 0, "Watch the directory and summarize each save as it is written.  Also the default."},
}

func main() {
	cfg, args, err := config.Resolve(config.DefaultFile, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cmd, subargs, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, cmd, subargs, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func parseArgs(args []string) (string, []string, error) {
	cmd := ""
	subargs := []string{}
	needed := 0
	for _, arg := range args {
		if cmd == "" {
			for _, info := range argInfo {
				if info.arg == arg {
					cmd = arg
					needed = info.subargs
					break
				}
			}
			if cmd == "" {
				return "", nil, fmt.Errorf("unexpected extra argument: %s", arg)
			}
		} else if len(subargs) < needed {
			subargs = append(subargs, arg)
		} else {
			return "", nil, fmt.Errorf("unexpected extra argument: %s", arg)
		}
	}
	if cmd == "" {
		cmd = "run"
	}
	if len(subargs) != needed {
		return "", nil, fmt.Errorf("expected %d extra arguments; got %d", needed, len(subargs))
	}
	return cmd, subargs, nil
}

func run(ctx context.Context, cfg config.Config, cmd string, subargs []string, out io.Writer) error {
	logger := cfg.Logger(os.Stderr)
	opts := []savefile.Option{
		savefile.WithLogger(logger),
		savefile.WithStrictMarkers(cfg.StrictMarkers),
	}

	switch cmd {
	case "help":
		for _, info := range argInfo {
			fmt.Fprintln(out, info.arg, "-", info.desc)
		}
		return nil

	case "check":
		fmt.Fprintln(out, "Target dir is: "+cfg.Dir)
		fmt.Fprintln(out, "Catalog is: "+cfg.Catalog)
		_, err := os.ReadFile(cfg.Catalog)
		return err
	}

	catalogText, err := os.ReadFile(cfg.Catalog)
	if err != nil {
		return errors.Wrap(err, "reading catalog")
	}

	switch cmd {
	case "scan":
		sums, err := watch.ScanDir(ctx, cfg.Dir, catalogText, cfg.Watch.Concurrency, opts...)
		if err != nil {
			return err
		}
		if len(sums) == 0 {
			fmt.Fprintln(out, "(no saves found)")
		}
		for _, s := range sums {
			printSummary(out, s)
		}
		return nil

	case "show":
		printSummary(out, watch.Summarize(subargs[0], catalogText, opts...))
		return nil

	case "run":
		summaries := make(chan *watch.Summary)
		w := watch.New(cfg.Dir, catalogText,
			watch.WithLogger(logger),
			watch.WithDebounce(cfg.Watch.Debounce),
			watch.WithSaveOptions(opts...))
		if err := w.Start(summaries); err != nil {
			return err
		}

		fmt.Fprintln(out, "Watching...", cfg.Dir)
		fmt.Fprintln(out)
		for {
			select {
			case s := <-summaries:
				printSummary(out, s)
			case <-ctx.Done():
				return w.Stop()
			}
		}
	}
	return fmt.Errorf("%s is not a command", cmd)
}

func printSummary(out io.Writer, s *watch.Summary) {
	fmt.Fprintln(out, s.Path)
	if s.Err != nil {
		fmt.Fprintln(out, "   could not read:", s.Err)
		fmt.Fprintln(out)
		return
	}
	for c := types.Class(0); c < types.ClassCount; c++ {
		fmt.Fprintf(out, "   %-9s %8d xp, %d promotions\n", c, s.Classes[c].XP, s.Classes[c].Promotions)
	}
	fmt.Fprintln(out, "   credits:", s.Credits)
	fmt.Fprintln(out, "   perk points:", s.PerkPoints)
	fmt.Fprintf(out, "   schematics: %d forged, %d unforged", s.Forged, s.Unforged)
	if s.Unknown > 0 {
		fmt.Fprintf(out, " (%d not in catalog)", s.Unknown)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "   left to forge:", s.ToForge)
	fmt.Fprintln(out)
}
