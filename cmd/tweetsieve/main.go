package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"tweetsieve/internal/analytics"
	"tweetsieve/internal/cmdlog"
	"tweetsieve/internal/config"
	"tweetsieve/internal/filter"
	"tweetsieve/internal/logging"
	"tweetsieve/internal/metrics"
	"tweetsieve/internal/model"
	"tweetsieve/internal/pipeline"
	"tweetsieve/internal/query"
	"tweetsieve/internal/report"
	"tweetsieve/internal/server"
	"tweetsieve/internal/source"
	"tweetsieve/internal/store/archive"
	"tweetsieve/internal/theme"
	"tweetsieve/internal/util"
)

const defaultConfigPath = "./tweetsieve.yaml"

func main() {
	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	var err error
	switch cmd {
	case "init":
		err = cmdInit(os.Args[2:])
	case "filter":
		err = cmdFilter(os.Args[2:])
	case "query":
		err = cmdQuery(os.Args[2:])
	case "import":
		err = cmdImport(os.Args[2:])
	case "serve":
		err = cmdServe(os.Args[2:])
	default:
		printHelp()
		return
	}
	logging.Sync()
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func printHelp() {
	theme.PrintBanner()
	fmt.Println("Usage: tweetsieve <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  init        Create a config file at ./tweetsieve.yaml")
	fmt.Println("  filter      Filter a tweet batch and write json, txt and pdf exports")
	fmt.Println("  query       Parse a search query and test it against a text")
	fmt.Println("  import      Store a tweet batch in a SQLite archive")
	fmt.Println("  serve       Run the HTTP filter service")
}

// loadConfig reads path. A missing file is only an error when the path was
// given explicitly; otherwise defaults are used.
func loadConfig(path string, explicit bool) (config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if !explicit && errors.Is(err, os.ErrNotExist) {
		cfg = config.Default()
		cfg.ResolveEnv()
		return cfg, nil
	}
	return cfg, fmt.Errorf("load config: %w", err)
}

func setup(cfg config.Config) {
	logging.Init(logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	metrics.StartServer(cfg.Metrics.Addr)
}

func cmdInit(args []string) error {
	out := flag.NewFlagSet("init", flag.ExitOnError)
	path := out.String("path", defaultConfigPath, "path to write config")
	_ = out.Parse(args)
	return cmdlog.Run("init", func() error {
		if err := config.Save(*path, config.Default()); err != nil {
			return err
		}
		abs, _ := filepath.Abs(*path)
		theme.PrintBanner()
		fmt.Println("Config written to:", abs)
		return nil
	})
}

// filterFlags are command-line overrides for the config's filter section.
type filterFlags struct {
	minWords  int
	maxWords  int
	keywords  string
	anyMode   bool
	query     string
	metric    string
	minMetric int64
	from      string
	to        string
}

func (f *filterFlags) register(fs *flag.FlagSet) {
	fs.IntVar(&f.minWords, "min-words", 0, "minimum word count")
	fs.IntVar(&f.maxWords, "max-words", 0, "maximum word count (0 = unbounded)")
	fs.StringVar(&f.keywords, "keywords", "", "comma-separated required keywords")
	fs.BoolVar(&f.anyMode, "any", false, "match any keyword instead of all")
	fs.StringVar(&f.query, "query", "", `search query, e.g. "cat" AND ("dog" OR "bird")`)
	fs.StringVar(&f.metric, "metric", "", "metric to filter and sort by (reply_count, like_count, ...)")
	fs.Int64Var(&f.minMetric, "min-metric", 0, "minimum value for -metric")
	fs.StringVar(&f.from, "from", "", "earliest created date, YYYY-MM-DD")
	fs.StringVar(&f.to, "to", "", "latest created date, YYYY-MM-DD")
}

// apply copies the flags that were set on the command line into fc.
func (f *filterFlags) apply(fc *config.FilterConfig, set map[string]bool) {
	if set["min-words"] {
		fc.MinWords = f.minWords
	}
	if set["max-words"] {
		fc.MaxWords = nil
		if f.maxWords > 0 {
			fc.MaxWords = filter.IntPtr(f.maxWords)
		}
	}
	if set["keywords"] {
		fc.Keywords = util.SplitList(f.keywords)
	}
	if set["any"] {
		fc.KeywordMode = string(filter.ModeAll)
		if f.anyMode {
			fc.KeywordMode = string(filter.ModeAny)
		}
	}
	if set["query"] {
		fc.Query = f.query
	}
	if set["metric"] {
		fc.Metric = f.metric
	}
	if set["min-metric"] {
		fc.MinMetricValue = f.minMetric
	}
	if set["from"] {
		fc.FromDate = f.from
	}
	if set["to"] {
		fc.ToDate = f.to
	}
}

func setFlags(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func cmdFilter(args []string) error {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	cfgPath := fs.String("config", defaultConfigPath, "config path")
	in := fs.String("in", "", "input JSON file (a list of tweets or {\"data\": [...]})")
	dbPath := fs.String("db", "", "SQLite archive to read instead of -in")
	limit := fs.Int("limit", 0, "maximum rows to read from -db (0 = all)")
	outDir := fs.String("out", "", "output directory")
	formats := fs.String("formats", "", "comma-separated export formats (json,txt,pdf)")
	preview := fs.Int("preview", 0, "print the first N input records before filtering")
	show := fs.Int("show", 0, "print the first N filtered records after sorting")
	var ff filterFlags
	ff.register(fs)
	_ = fs.Parse(args)
	set := setFlags(fs)

	cfg, err := loadConfig(*cfgPath, set["config"])
	if err != nil {
		return err
	}
	setup(cfg)
	ff.apply(&cfg.Filter, set)
	if set["out"] {
		cfg.Export.OutputDir = *outDir
	}
	if set["formats"] {
		cfg.Export.Formats = util.SplitList(*formats)
	}
	if set["db"] {
		cfg.Source.DBPath = *dbPath
	}
	if set["limit"] {
		cfg.Source.Limit = *limit
	}

	return cmdlog.Run("filter", func() error {
		criteria, err := cfg.Filter.Criteria()
		if err != nil {
			return err
		}
		fmts, err := cfg.Export.ExportFormats()
		if err != nil {
			return err
		}
		records, err := loadRecords(*in, cfg.Source)
		if err != nil {
			return err
		}
		if *preview > 0 {
			fmt.Print(theme.RenderTweets("Input preview", tweetCards(records, *preview)))
		}
		opts := cfg.Export.DocumentOptions()
		opts.CreatedAt = time.Now()
		outcome, payloads := pipeline.Execute(records, criteria, fmts, opts)
		paths, err := pipeline.WriteFiles(cfg.Export.OutputDir, cfg.Export.BaseName, payloads)
		if err != nil {
			return err
		}
		fmt.Println(theme.RenderSummary(summarize(outcome, paths, payloads)))
		if *show > 0 {
			fmt.Print(theme.RenderTweets("Filtered tweets", tweetCards(outcome.Records, *show)))
		}
		return nil
	})
}

func loadRecords(in string, src config.SourceConfig) ([]*model.Record, error) {
	if in != "" {
		return source.LoadFile(in)
	}
	if src.DBPath == "" {
		return nil, errors.New("no input: pass -in FILE or -db FILE")
	}
	db, err := archive.Open(src.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer db.Close()
	return db.LoadBatch(context.Background(), src.Limit)
}

const cardTextRunes = 200

// tweetCards converts up to n records for the terminal listing.
func tweetCards(records []*model.Record, n int) []theme.TweetCard {
	if n > len(records) {
		n = len(records)
	}
	cards := make([]theme.TweetCard, 0, n)
	for i, r := range records[:n] {
		text, err := r.Text()
		switch {
		case err != nil:
			text = report.ErrorPlaceholder(i)
		case strings.TrimSpace(text) == "":
			text = report.EmptyPlaceholder
		default:
			if cut, truncated := util.TruncateRunes(text, cardTextRunes); truncated {
				text = cut + "..."
			}
		}
		cards = append(cards, theme.TweetCard{
			Index:    i + 1,
			Date:     cardDate(r),
			Text:     text,
			Replies:  r.MetricDisplay(model.ReplyCount),
			Retweets: r.MetricDisplay(model.RetweetCount),
			Likes:    r.MetricDisplay(model.LikeCount),
			Quotes:   r.MetricDisplay(model.QuoteCount),
		})
	}
	return cards
}

func cardDate(r *model.Record) string {
	if d, ok := r.CreatedDate(); ok {
		return d
	}
	if raw, ok := r.CreatedAt(); ok {
		if d, ok := filter.DeriveDate(raw); ok {
			return string(d)
		}
	}
	return model.UnknownDate
}

func summarize(o pipeline.Outcome, paths []string, payloads map[report.Format][]byte) theme.Summary {
	s := theme.Summary{
		Total:    o.Total,
		Kept:     len(o.Records),
		Skipped:  len(o.Skipped),
		SortedBy: string(o.SortedBy),
		Files:    paths,
	}
	if o.QueryErr != nil {
		s.QueryErr = o.QueryErr.Error()
	}
	counts := analytics.DailyCounts(o.Records)
	for _, d := range analytics.SortedDays(counts) {
		s.Days = append(s.Days, theme.DayCount{Day: d, Count: counts[d]})
	}
	if doc, ok := payloads[report.FormatPDF]; ok {
		if n, err := report.PageCount(doc); err == nil {
			s.PDFPages = n
		} else {
			logging.Warn("pdf_page_count_failed", map[string]any{"error": err})
		}
	}
	return s
}

func cmdQuery(args []string) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() != 2 {
		return errors.New(`usage: tweetsieve query '"cat" AND "dog"' 'text to test'`)
	}
	return cmdlog.Run("query", func() error {
		q, err := query.Compile(fs.Arg(0))
		if err != nil {
			fmt.Println("parse:", err)
			fmt.Println("match: false")
			return nil
		}
		fmt.Println("parse:", q)
		fmt.Println("match:", q.Match(fs.Arg(1)))
		return nil
	})
}

func cmdImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	in := fs.String("in", "", "input JSON file")
	dbPath := fs.String("db", "./tweets.db", "SQLite archive to append to")
	_ = fs.Parse(args)
	if *in == "" {
		return errors.New("import needs -in FILE")
	}
	return cmdlog.Run("import", func() error {
		records, err := source.LoadFile(*in)
		if err != nil {
			return err
		}
		db, err := archive.Open(*dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		n, err := db.Import(context.Background(), records)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d tweets into %s\n", n, *dbPath)
		return nil
	})
}

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", defaultConfigPath, "config path")
	addr := fs.String("addr", "", "listen address (default from config)")
	_ = fs.Parse(args)
	set := setFlags(fs)

	cfg, err := loadConfig(*cfgPath, set["config"])
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	setup(cfg)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return cmdlog.Run("serve", func() error {
		return server.New(server.OptionsFromConfig(cfg)).ListenAndServe(ctx, cfg.Server.Addr)
	})
}
