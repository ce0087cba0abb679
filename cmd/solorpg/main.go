// solorpg loads world packages and plays them from the terminal.
//
// Usage:
//
//	solorpg check <package.zip>
//	solorpg play [-seed n] [-name name] <package.zip>
//	solorpg migrate
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/daemonforge/solorpg/internal/config"
	"github.com/daemonforge/solorpg/internal/data"
	"github.com/daemonforge/solorpg/internal/persist"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: solorpg <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  check     Load and validate a world package, report dangling references")
	fmt.Println("  play      Play a world package on stdin/stdout")
	fmt.Println("  migrate   Apply journal database migrations")
}

// ── Startup display helpers ────────────────────────────────────────

func printSection(title string) {
	lineLen := 46 - len([]rune(title)) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, value string) {
	dotsLen := 42 - len([]rune(label)) - len([]rune(value))
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), value)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printWarn(msg string) {
	fmt.Printf("  \033[33m!\033[0m %s\n", msg)
}

// ── Commands ──────────────────────────────────────────────────────

func run(args []string) error {
	if len(args) < 1 {
		printUsage()
		return fmt.Errorf("no command")
	}
	cmd := args[0]
	if cmd == "-h" || cmd == "--help" || cmd == "help" {
		printUsage()
		return nil
	}

	// 1. Load config
	cfgPath := "config/solorpg.toml"
	if p := os.Getenv("SOLORPG_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	seed := fs.Int64("seed", cfg.Dice.Seed, "dice seed (0 = random)")
	name := fs.String("name", "Wanderer", "player character name")
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	switch cmd {
	case "check":
		if fs.NArg() < 1 {
			return fmt.Errorf("usage: solorpg check <package.zip>")
		}
		return runCheck(cfg, log, fs.Arg(0))
	case "play":
		if fs.NArg() < 1 {
			return fmt.Errorf("usage: solorpg play [-seed n] [-name name] <package.zip>")
		}
		return runPlay(cfg, log, fs.Arg(0), *name, *seed)
	case "migrate":
		return runMigrate(cfg, log)
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func newLoader(cfg *config.Config, log *zap.Logger) *data.Loader {
	return data.NewLoader(data.Options{
		MaxSize:          cfg.Package.MaxSize,
		MaxEntrySize:     cfg.Package.MaxEntrySize,
		StrictReferences: cfg.Package.StrictReferences,
	}, log)
}

func runMigrate(cfg *config.Config, log *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Journal, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	applied, err := db.MigrateJournal(ctx)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		printOK("journal schema up to date")
	} else {
		printOK(fmt.Sprintf("journal schema migrated to version %d", applied[len(applied)-1]))
	}
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
