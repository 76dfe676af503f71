package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kingpin"

	"kastelo.dev/xlsx2json/config"
	"kastelo.dev/xlsx2json/store"
)

func main() {
	envFile := kingpin.Flag("env-file", "File with XLSX2JSON_* settings").Default(".env").String()
	databaseURL := kingpin.Flag("database-url", "PostgreSQL connection URL").String()
	table := kingpin.Flag("table", "Table receiving the sheet records").String()
	ext := kingpin.Flag("ext", "Extension of the workbook files").String()
	logLevel := kingpin.Flag("log-level", "Log level (debug, info, warn, error)").String()
	logFormat := kingpin.Flag("log-format", "Log format (text, json)").String()

	cmdImport := kingpin.Command("import", "Import the workbooks of a directory into the database")
	importDir := cmdImport.Arg("dir", "Directory holding the workbooks").Required().ExistingDir()
	importMigrate := cmdImport.Flag("migrate", "Create the table first when missing").Bool()

	cmdConvert := kingpin.Command("convert", "Print the sheet records of workbooks as JSON lines")
	convertFiles := cmdConvert.Arg("file", "Workbook to convert").Required().ExistingFiles()

	cmdDiff := kingpin.Command("diff", "Compare the sheet records of a workbook with a golden file")
	diffFile := cmdDiff.Arg("file", "Workbook to convert").Required().ExistingFile()
	diffGolden := cmdDiff.Arg("golden", "Golden JSON file").Required().String()
	diffUpdate := cmdDiff.Flag("update", "Rewrite the golden file instead of comparing").Bool()

	cmdServe := kingpin.Command("serve", "Convert uploaded workbooks over HTTP")
	serveListen := cmdServe.Flag("listen", "Listen address").String()

	cmdMigrate := kingpin.Command("migrate", "Create the table for the sheet records")

	cmdSample := kingpin.Command("sample", "Write a small example workbook")
	sampleOut := cmdSample.Arg("output", "File to write").Required().String()

	cmd := kingpin.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		kingpin.Fatalf("%v", err)
	}
	err = cfg.Override(config.Config{
		DatabaseURL: *databaseURL,
		Table:       *table,
		Extension:   *ext,
		Listen:      *serveListen,
		LogLevel:    *logLevel,
		LogFormat:   *logFormat,
	})
	if err != nil {
		kingpin.Fatalf("%v", err)
	}
	if err := cfg.Validate(); err != nil {
		kingpin.Fatalf("%v", err)
	}

	log := newLogger(cfg)
	slog.SetDefault(log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	switch cmd {
	case cmdImport.FullCommand():
		err = runImport(ctx, log, cfg, *importDir, *importMigrate)
	case cmdConvert.FullCommand():
		err = runConvert(ctx, log, os.Stdout, *convertFiles)
	case cmdDiff.FullCommand():
		var differs bool
		differs, err = runDiff(ctx, log, os.Stdout, *diffFile, *diffGolden, *diffUpdate)
		if err == nil && differs {
			cancel()
			os.Exit(1)
		}
	case cmdServe.FullCommand():
		err = runServe(ctx, log, cfg.Listen)
	case cmdMigrate.FullCommand():
		err = runMigrate(ctx, cfg)
	case cmdSample.FullCommand():
		err = writeSample(*sampleOut)
	}

	if err != nil {
		log.Error("Command failed", "command", cmd, "error", err)
		cancel()
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(h)
}

func runMigrate(ctx context.Context, cfg config.Config) error {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.Migrate(ctx)
}

func openStore(ctx context.Context, cfg config.Config) (*store.Store, error) {
	if cfg.DatabaseURL == "" {
		return nil, errNoDatabase
	}
	return store.Open(ctx, cfg.DatabaseURL, cfg.Table)
}
