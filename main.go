// Package main provides the linky CLI entrypoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/lukemcguire/linky/config"
	"github.com/lukemcguire/linky/crawler"
	"github.com/lukemcguire/linky/result"
	"github.com/lukemcguire/linky/tui"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const usageHeader = `Usage: linky [flags] <url>

Checks every link on the page at <url> and reports the broken ones.
With -r, internal pages are followed and checked as well.

Flags:
`

// cliArgs are the command-line values that are not crawl settings.
type cliArgs struct {
	url        string
	configPath string
	version    bool
}

func main() {
	interactive := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, interactive))
}

// run executes the CLI and returns the process exit code: 0 on a clean run,
// 1 when broken links were found or the crawl failed, 2 on bad flags.
func run(args []string, stdout, stderr io.Writer, interactive bool) int {
	cfg, cli, err := parseArgs(args, stdout)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if cli.version {
		fmt.Fprintf(stdout, "linky %s\n", version)
		return 0
	}
	if cli.url == "" {
		defaults := config.Default()
		printUsage(stdout, newFlagSet(&defaults, &cliArgs{}))
		return 0
	}

	// Validate already accepted the format.
	format, _ := result.ParseFormat(cfg.Format)
	plain := cfg.Plain || !interactive

	// Progress lines share stdout with a text report; machine-readable reports
	// keep stdout to themselves.
	progress := stdout
	if format != result.FormatText {
		progress = stderr
		plain = true
	}

	var logFallback io.Writer
	if plain && cfg.Logging.Level == "debug" {
		logFallback = stderr
	}
	logger, closeLog, err := cfg.Logging.NewLogger(logFallback)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer closeLog()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	events := make(chan crawler.CrawlEvent, 100)
	cr := crawler.New(cfg.CrawlerConfig(cli.url, logger), events)

	var res *result.Result
	var crawlErr error
	if plain {
		res, crawlErr = runPlain(ctx, cr, events, progress)
		if res != nil && format == result.FormatText {
			result.PrintResults(stdout, res)
		}
	} else {
		model := tui.NewModel(ctx, cancel, cr, events)
		finalModel, err := tea.NewProgram(model, tea.WithOutput(stdout)).Run()
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		final := finalModel.(tui.Model)
		res, crawlErr = final.GetResult(), final.Err()
	}

	if res != nil && format != result.FormatText {
		if err := result.Write(stdout, format, res); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	if res == nil && crawlErr == nil {
		fmt.Fprintln(stderr, "Cancelled.")
		return 1
	}
	if crawlErr != nil {
		if plain || res == nil {
			fmt.Fprintf(stderr, "Error: %v\n", crawlErr)
		}
		return 1
	}
	if res.HasBrokenLinks() {
		return 1
	}
	return 0
}

// runPlain runs the crawl while printing event lines to w as they arrive.
func runPlain(ctx context.Context, cr *crawler.Crawler, events <-chan crawler.CrawlEvent, w io.Writer) (*result.Result, error) {
	type outcome struct {
		res *result.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := cr.Run(ctx)
		done <- outcome{res: res, err: err}
	}()

	tui.PrintEvents(w, events)
	out := <-done
	return out.res, out.err
}

// parseArgs resolves settings from defaults, the optional config file and the
// command line, in increasing precedence. Flags may come before or after the
// URL.
func parseArgs(args []string, usageOut io.Writer) (config.Config, cliArgs, error) {
	cfg := config.Default()
	var cli cliArgs
	if err := parseInto(args, &cfg, &cli, usageOut); err != nil {
		return cfg, cli, err
	}
	if cli.configPath == "" {
		return cfg, cli, cfg.Validate()
	}

	fileCfg, err := config.Load(cli.configPath)
	if err != nil {
		return cfg, cli, err
	}
	// Parsing again on top of the file values applies only the flags that
	// were given explicitly.
	if err := parseInto(args, fileCfg, &cli, usageOut); err != nil {
		return cfg, cli, err
	}
	return *fileCfg, cli, fileCfg.Validate()
}

func parseInto(args []string, cfg *config.Config, cli *cliArgs, usageOut io.Writer) error {
	fs := newFlagSet(cfg, cli)
	fs.SetOutput(usageOut)
	fs.Usage = func() { printUsage(usageOut, fs) }

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}

	switch len(positional) {
	case 0:
	case 1:
		cli.url = positional[0]
	default:
		return fmt.Errorf("expected one URL, got %d", len(positional))
	}
	return nil
}

func newFlagSet(cfg *config.Config, cli *cliArgs) *flag.FlagSet {
	fs := flag.NewFlagSet("linky", flag.ContinueOnError)

	fs.BoolVar(&cfg.Recursive, "r", cfg.Recursive, "shorthand for -recursive")
	fs.BoolVar(&cfg.Recursive, "recursive", cfg.Recursive, "follow internal pages and check their links too")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "shorthand for -verbose")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "also report links that are OK")
	fs.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "number of fetches in flight per round")
	fs.Var(&cfg.Timeout, "timeout", "per-request timeout (e.g. 10s, or seconds)")
	fs.IntVar(&cfg.Retries, "retries", cfg.Retries, "number of retries for transient errors")
	fs.Var(&cfg.RetryDelay, "retry-delay", "base delay between retries")
	fs.StringVar(&cfg.UserAgent, "user-agent", cfg.UserAgent, "user agent string")
	fs.BoolVar(&cfg.StrictOrigin, "strict-origin", cfg.StrictOrigin, "treat only the same scheme, host and port as internal")
	fs.StringVar(&cfg.Format, "format", cfg.Format, "report format: text, json or csv")
	fs.BoolVar(&cfg.Plain, "plain", cfg.Plain, "print plain lines instead of the interactive view")
	fs.StringVar(&cfg.Logging.File, "log-file", cfg.Logging.File, "append the diagnostic log to this file")
	fs.BoolFunc("debug", "log at debug level (to stderr in plain mode)", func(s string) error {
		if on, err := strconv.ParseBool(s); err != nil || on {
			cfg.Logging.Level = "debug"
		}
		return nil
	})
	fs.StringVar(&cli.configPath, "config", cli.configPath, "YAML config file")
	fs.BoolVar(&cli.version, "version", cli.version, "print the version and exit")

	return fs
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprint(w, usageHeader)
	fs.SetOutput(w)
	fs.PrintDefaults()
}
