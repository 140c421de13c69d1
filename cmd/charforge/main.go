package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ebonhold/charforge/character"
	"github.com/ebonhold/charforge/config"
	"github.com/ebonhold/charforge/generator"
	charlogger "github.com/ebonhold/charforge/logger"
	"github.com/ebonhold/charforge/migrations"
	"github.com/ebonhold/charforge/prompt"
	"github.com/ebonhold/charforge/providers"
)

// requestTypeByField maps the persisted column names to their request types.
var requestTypeByField = map[string]string{
	"background": generator.RequestCharacterBackground,
	"equipment":  generator.RequestCharacterEquipment,
	"spells":     generator.RequestCharacterSpells,
	"traits":     generator.RequestCharacterTraits,
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		providerName = flag.String("provider", "", "Provider to generate with (anthropic, openai, ollama, mock). Overrides config")
		configPath   = flag.String("config", "", "Path to config file. Defaults to ~/.charforge/config.yaml")
		dbPath       = flag.String("db", "", "Path to SQLite database file. Overrides config")
		templateDir  = flag.String("templates", "", "Path to template directory. Overrides config")
		logFile      = flag.String("logfile", "", "Path to log file. If not set, logs to stdout")
		pretty       = flag.Bool("pretty", false, "Use pretty console output (only valid when logfile is not set)")
		listOnly     = flag.Bool("list", false, "List stored characters and exit")
		name         = flag.String("name", "", "Character name")
		class        = flag.String("class", "Fighter", "Character class")
		race         = flag.String("race", "Human", "Character race")
		alignment    = flag.String("alignment", "True Neutral", "Character alignment")
		level        = flag.Int("level", 1, "Character level")
		fields       = flag.String("fields", "background", "Comma-separated generated fields: background,equipment,spells,traits")
	)
	flag.Parse()

	if *logFile != "" && *pretty {
		return fmt.Errorf("--logfile and --pretty are mutually exclusive")
	}
	logger, err := charlogger.InitWithOptions(*logFile, *pretty)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	path := *configPath
	if path == "" {
		path = config.GetConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if *providerName != "" {
		cfg.Provider = *providerName
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}
	if *templateDir != "" {
		cfg.TemplateDir = *templateDir
	}

	logger.Info().
		Str("provider", cfg.Provider).
		Str("db", cfg.DatabasePath).
		Str("templates", cfg.TemplateDir).
		Msg("charforge starting")

	db, err := sql.Open("sqlite3", cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close() //nolint:errcheck // No remedy for db close errors

	if err := migrations.Run(db, "./migrations", logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	store := character.NewStore(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *listOnly {
		return listCharacters(ctx, store)
	}
	if *name == "" {
		return fmt.Errorf("--name is required (or use --list)")
	}

	client, err := providers.NewRegistry().Create(cfg.Provider, cfg.ClientConfig(cfg.Provider), logger)
	if err != nil {
		return err
	}
	loader := prompt.NewLoader(cfg.TemplateDir, cfg.Env, logger)
	service := generator.New(cfg.Provider, client, loader, logger)

	record, err := store.Create(ctx, &character.Character{
		Name:      *name,
		Class:     *class,
		Race:      *race,
		Alignment: *alignment,
		Level:     *level,
	})
	if err != nil {
		return err
	}

	contextVars := map[string]any{
		"name":      record.Name,
		"class":     record.Class,
		"race":      record.Race,
		"alignment": record.Alignment,
		"level":     record.Level,
	}

	for _, field := range strings.Split(*fields, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		requestType, ok := requestTypeByField[field]
		if !ok {
			return fmt.Errorf("unknown field %q", field)
		}

		logger.Info().Str("field", field).Str("request_type", requestType).Msg("Generating field")
		resp, err := service.Generate(ctx, requestType, contextVars)
		if err != nil {
			return err
		}
		if err := store.SetGeneratedField(ctx, record.ID, field, resp); err != nil {
			return err
		}
	}

	final, err := store.Get(ctx, record.ID)
	if err != nil {
		return err
	}
	return printCharacter(final)
}

func listCharacters(ctx context.Context, store *character.Store) error {
	characters, err := store.List(ctx)
	if err != nil {
		return err
	}
	for _, c := range characters {
		fmt.Printf("%s  %s (level %d %s %s)\n", c.ID, c.Name, c.Level, c.Race, c.Class)
	}
	return nil
}

func printCharacter(c *character.Character) error {
	out, err := json.MarshalIndent(map[string]any{
		"id":         c.ID,
		"name":       c.Name,
		"class":      c.Class,
		"race":       c.Race,
		"alignment":  c.Alignment,
		"level":      c.Level,
		"background": c.Background,
		"equipment":  c.Equipment,
		"spells":     c.Spells,
		"traits":     c.Traits,
	}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
