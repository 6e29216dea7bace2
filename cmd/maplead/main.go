package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/ramkansal/maplead/internal/crawler"
	"github.com/ramkansal/maplead/internal/fetcher"
	"github.com/ramkansal/maplead/internal/output"
	"github.com/ramkansal/maplead/pkg/plugin"
	"github.com/sirupsen/logrus"
)

var version = "1.0.0"

var noColor bool

// flags holds all parsed CLI options.
type flags struct {
	// Target
	query    string
	maxCards int

	// Browser
	headless bool
	timeout  int
	lang     string

	// Features
	probe bool

	// Output
	outputDir  string
	xlsx       bool
	report     string
	flushEvery int
	verbose    bool
	noColor    bool

	// Meta
	showHelp    bool
	showVersion bool
}

func main() {
	// A missing .env is not an error
	_ = godotenv.Load()

	f := parseFlags(os.Args[1:])

	if f.showVersion {
		fmt.Printf("maplead v%s\n", version)
		os.Exit(0)
	}

	if f.showHelp || f.query == "" {
		printUsage()
		if f.query == "" && !f.showHelp {
			os.Exit(1)
		}
		os.Exit(0)
	}

	noColor = f.noColor || !enableANSI()

	cfg, err := buildConfig(f)
	if err != nil {
		fatal("%v", err)
	}

	// Failures are reported on the console; the exit status does not change.
	if err := run(cfg, newLogger(cfg)); err != nil {
		printError("%v", err)
	}
}

// newDriver opens the browser session for a run.
var newDriver = func(cfg fetcher.BrowserDriverConfig) (plugin.Driver, error) {
	d, err := fetcher.NewBrowserDriver(cfg)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// run owns the browser session for the whole run. Every way out of the run
// passes through the deferred teardown.
func run(cfg *crawler.Config, log *logrus.Entry) error {
	printBanner()
	fmt.Printf("\n  %s %s\n", clr("cyan", "Query:"), cfg.Query)
	fmt.Printf("  %s %d  %s %v  %s %s\n\n",
		clr("dim", "Max:"), cfg.MaxCards,
		clr("dim", "Headless:"), cfg.Headless,
		clr("dim", "Output:"), cfg.OutputDir,
	)

	driver, err := newDriver(fetcher.BrowserDriverConfig{
		Headless:      cfg.Headless,
		ChromeBin:     cfg.ChromeBin,
		Lang:          cfg.Lang,
		UserAgent:     cfg.UserAgent,
		NavTimeout:    3 * cfg.WaitTimeout,
		ActionTimeout: cfg.WaitTimeout,
	})
	if err != nil {
		return fmt.Errorf("browser startup failed: %w", err)
	}
	defer func() {
		if err := driver.Close(); err != nil {
			log.WithError(err).Warn("browser shutdown failed")
		}
	}()

	store := output.ForQuery(cfg.OutputDir, cfg.Query, log)

	opts := []crawler.Option{crawler.WithLogger(log)}
	if cfg.ProbeWebsites {
		opts = append(opts, crawler.WithProber(fetcher.NewSiteProber(fetcher.SiteProberConfig{
			Timeout:   cfg.ProbeTimeout,
			UserAgent: cfg.UserAgent,
		})))
	}
	c := crawler.New(cfg, driver, store, opts...)

	var report *output.ReportWriter
	if cfg.ReportPath != "" {
		report = output.NewReportWriter(cfg.ReportPath)
	}

	// Handle Ctrl+C
	sig := make(chan os.Signal, 1)
	registerSignals(sig)
	defer signal.Stop(sig)
	finished := make(chan struct{})
	defer close(finished)
	go watchSignals(sig, finished, c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range c.Events() {
			if report != nil {
				report.Record(event)
			}
			handleEvent(event, cfg)
		}
	}()

	stats, runErr := c.Run(context.Background())
	<-done

	if report != nil {
		if err := report.Finalize(stats); err != nil {
			log.WithError(err).Warn("report not written")
		} else {
			fmt.Printf("    Report: %s\n\n", clr("green", report.Path()))
		}
	}

	if runErr != nil {
		return runErr
	}
	if cfg.ExportXLSX {
		return exportXLSX(store)
	}
	return nil
}

// watchSignals stops c on the first signal. It returns once done is closed.
func watchSignals(sig <-chan os.Signal, done <-chan struct{}, c interface{ Stop() }) {
	select {
	case <-sig:
		fmt.Fprintf(os.Stderr, "\n\n%s Interrupt received, finishing current card...\n", clr("yellow", "!"))
		c.Stop()
	case <-done:
	}
}

func exportXLSX(store *output.LeadStore) error {
	leads, err := store.Load()
	if err != nil {
		return fmt.Errorf("read %s for export: %w", store.Path(), err)
	}
	path := output.XLSXPath(store.Path())
	if err := output.ExportXLSX(path, leads); err != nil {
		return fmt.Errorf("xlsx export: %w", err)
	}
	fmt.Printf("    Sheet:  %s\n\n", clr("green", path))
	return nil
}

func handleEvent(event plugin.Event, cfg *crawler.Config) {
	switch event.Type {
	case plugin.EventRunStarted:
		fmt.Printf("  %s %s\n", clr("cyan", "→"), event.Message)

	case plugin.EventSearchDone, plugin.EventScrolled:
		if cfg.Verbose {
			fmt.Printf("  %s %s\n", clr("dim", "·"), clr("dim", event.Message))
		}

	case plugin.EventCardClassified:
		if event.Lead != nil {
			// Printed on EventLeadFound
			return
		}
		fmt.Printf("  %s [%d] %s %s\n",
			clr("dim", "○"),
			event.Index,
			event.Name,
			clr("dim", "(has website)"),
		)

	case plugin.EventLeadFound:
		if event.Lead == nil {
			return
		}
		l := event.Lead
		fmt.Printf("  %s [%d] %s %s\n",
			clr("green", "●"),
			event.Index,
			l.Name,
			typeLabel(l.WebsiteType),
		)
		if cfg.Verbose {
			if l.Website != "" {
				fmt.Printf("      %s %s\n", clr("dim", "├─ website:"), l.Website)
			}
			fmt.Printf("      %s %s\n", clr("dim", "├─ phone:"), l.Phone)
			fmt.Printf("      %s %s\n", clr("dim", "└─ address:"), l.Address)
		}

	case plugin.EventCardError:
		if event.Index < 0 {
			fmt.Printf("  %s %s\n", clr("red", "✗"), event.Message)
			return
		}
		fmt.Printf("  %s [%d] %s %s\n", clr("red", "✗"), event.Index, event.Name, clr("dim", event.Message))

	case plugin.EventCardAbandoned:
		fmt.Printf("  %s [%d] %s %s\n", clr("yellow", "…"), event.Index, event.Name, clr("dim", "(abandoned: "+event.Message+")"))

	case plugin.EventEndOfList:
		fmt.Printf("  %s %s\n", clr("yellow", "■"), event.Message)

	case plugin.EventFlushed:
		if cfg.Verbose {
			fmt.Printf("  %s %s\n", clr("dim", "↓"), clr("dim", event.Message))
		}

	case plugin.EventRunFinished:
		if event.Stats == nil {
			return
		}
		s := event.Stats
		fmt.Println()
		fmt.Printf("  %s\n", strings.Repeat("─", 50))
		fmt.Printf("  %s %s\n", clr("green", "✓"), event.Message)
		fmt.Printf("    Cards:  %s seen, %s opened, %s abandoned, %s errors in %s\n",
			clr("cyan", fmt.Sprintf("%d", s.CardsSeen)),
			clr("cyan", fmt.Sprintf("%d", s.CardsOpened)),
			clr("yellow", fmt.Sprintf("%d", s.CardsAbandoned)),
			clr("red", fmt.Sprintf("%d", s.CardsFailed)),
			fmtDur(s.Elapsed),
		)
		if types := output.TypeCounts(s.LeadsByType); types != "" {
			fmt.Printf("    Types:  %s\n", types)
		}
		if s.StorePath != "" {
			fmt.Printf("    Output: %s %s\n", clr("green", s.StorePath), clr("dim", fmt.Sprintf("(%d rows)", s.StoredRows)))
		}
		fmt.Println()
	}
}

func typeLabel(websiteType string) string {
	switch websiteType {
	case plugin.LeadSocial:
		return clr("yellow", "[social]")
	case plugin.LeadUnreachable:
		return clr("red", "[unreachable]")
	default:
		return clr("cyan", "["+websiteType+"]")
	}
}

// ---------- Flag parsing ----------

func parseFlags(args []string) *flags {
	f := &flags{
		maxCards: 10,
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		next := func() string {
			if i+1 < len(args) {
				i++
				return args[i]
			}
			fatal("flag %s requires an argument", arg)
			return ""
		}
		nextInt := func() int {
			v := next()
			var n int
			if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
				fatal("flag %s expects a number, got %q", arg, v)
			}
			return n
		}

		switch arg {
		// Target
		case "-m", "--max":
			f.maxCards = nextInt()

		// Browser
		case "--headless":
			f.headless = true
		case "-t", "--timeout":
			f.timeout = nextInt()
		case "-l", "--lang":
			f.lang = next()

		// Features
		case "-p", "--probe":
			f.probe = true

		// Output
		case "-o", "--output-dir":
			f.outputDir = next()
		case "-x", "--xlsx":
			f.xlsx = true
		case "-r", "--report":
			f.report = next()
		case "-fe", "--flush-every":
			f.flushEvery = nextInt()
		case "-v", "--verbose":
			f.verbose = true
		case "-nc", "--no-color":
			f.noColor = true

		// Meta
		case "-h", "--help":
			f.showHelp = true
		case "-V", "--version":
			f.showVersion = true

		default:
			// Bare args make up the query
			if !strings.HasPrefix(arg, "-") {
				if f.query != "" {
					f.query += " "
				}
				f.query += arg
			} else {
				fmt.Fprintf(os.Stderr, "Unknown flag: %s (use --help for usage)\n", arg)
				os.Exit(1)
			}
		}
	}
	return f
}

// buildConfig layers flags over MAPLEAD_* environment values over defaults.
func buildConfig(f *flags) (*crawler.Config, error) {
	cfg := crawler.DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	cfg.Query = strings.TrimSpace(f.query)
	cfg.MaxCards = f.maxCards
	cfg.Headless = f.headless
	cfg.ProbeWebsites = f.probe
	cfg.ExportXLSX = f.xlsx
	cfg.ReportPath = f.report
	cfg.FlushEvery = f.flushEvery
	cfg.Verbose = f.verbose
	cfg.NoColor = noColor

	if f.timeout > 0 {
		cfg.WaitTimeout = time.Duration(f.timeout) * time.Second
	}
	if f.lang != "" {
		cfg.Lang = f.lang
	}
	if f.outputDir != "" {
		cfg.OutputDir = f.outputDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *crawler.Config) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		DisableColors: cfg.NoColor,
	})
	// Progress is rendered from events; the log carries diagnostics only
	l.SetLevel(logrus.WarnLevel)
	if cfg.Verbose {
		l.SetLevel(logrus.DebugLevel)
	}
	return logrus.NewEntry(l).WithField("query", cfg.Query)
}

// ---------- Help / banner ----------

func printUsage() {
	printBanner()
	fmt.Print(`
USAGE:
  maplead [flags] <query>
  maplead "Cafes in Springfield"
  maplead "Plumbers in Austin TX" -m 40 --headless -x

TARGET:
                 <query>                 free-text search, e.g. a category plus a locality
  -m,    --max <int>                     maximum number of result cards to process (default 10)

BROWSER:
         --headless                      run Chrome without a window
  -t,    --timeout <int>                 seconds to wait for each page element (default 10)
  -l,    --lang <string>                 browser UI language (default "en-US")

FEATURES:
  -p,    --probe                         request each business website and keep unreachable ones as leads

OUTPUT:
  -o,    --output-dir <string>           directory for the leads CSV (default ".")
  -x,    --xlsx                          also write the merged leads as an .xlsx next to the CSV
  -r,    --report <string>               save a plain-text run report to file
  -fe,   --flush-every <int>             write leads to disk every N leads (default: at the end)
  -v,    --verbose                       show debug logs and per-lead details
  -nc,   --no-color                      disable colored output

ENVIRONMENT (.env is loaded if present, flags take precedence):
  MAPLEAD_CHROME_BIN, MAPLEAD_OUTPUT_DIR, MAPLEAD_WAIT_TIMEOUT, MAPLEAD_BLOCKLIST,
  MAPLEAD_MAPS_URL, MAPLEAD_LANG, MAPLEAD_USER_AGENT

META:
  -h,    --help                          show this help message
  -V,    --version                       show version

`)
}

func printBanner() {
	logo := `
  ███╗   ███╗ █████╗ ██████╗ ██╗     ███████╗ █████╗ ██████╗
  ████╗ ████║██╔══██╗██╔══██╗██║     ██╔════╝██╔══██╗██╔══██╗
  ██╔████╔██║███████║██████╔╝██║     █████╗  ███████║██║  ██║
  ██║╚██╔╝██║██╔══██║██╔═══╝ ██║     ██╔══╝  ██╔══██║██║  ██║
  ██║ ╚═╝ ██║██║  ██║██║     ███████╗███████╗██║  ██║██████╔╝
  ╚═╝     ╚═╝╚═╝  ╚═╝╚═╝     ╚══════╝╚══════╝╚═╝  ╚═╝╚═════╝`
	fmt.Println(clr("cyan", logo))
	fmt.Printf("  %s  %s\n", clr("dim", "Finds local businesses without a real website"), clr("dim", "v"+version))
	fmt.Printf("  %s\n", clr("dim", strings.Repeat("─", 62)))
}

// ---------- Utilities ----------

func fmtDur(d time.Duration) string {
	return output.FormatDuration(d)
}

func clr(color, text string) string {
	if noColor {
		return text
	}
	codes := map[string]string{
		"red":    "\033[31m",
		"green":  "\033[32m",
		"yellow": "\033[33m",
		"cyan":   "\033[36m",
		"dim":    "\033[2m",
		"bold":   "\033[1m",
		"reset":  "\033[0m",
	}
	c, ok := codes[color]
	if !ok {
		return text
	}
	return c + text + codes["reset"]
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "\n  %s %s\n\n", clr("red", "ERROR:"), fmt.Sprintf(format, args...))
}

func fatal(format string, args ...interface{}) {
	printError(format, args...)
	os.Exit(1)
}
