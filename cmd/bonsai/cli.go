package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/kerru/bonsai/internal/analysis"
	"github.com/kerru/bonsai/internal/config"
	"github.com/kerru/bonsai/internal/errors"
	"github.com/kerru/bonsai/internal/ops"
	"github.com/kerru/bonsai/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "bonsai",
		Usage:   "Prompt optimizer with local history",
		Version: Version,
		Commands: []*cli.Command{
			optimizeCmd(db, cfg),
			analyzeCmd(cfg),
			historyCmd(db),
			latestCmd(db),
			showCmd(db),
			clearCmd(db),
			reportCmd(db),
			serveCmd(db, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// optimizeCmd creates the optimize command.
func optimizeCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "optimize",
		Usage:     "Optimize a prompt (argument or stdin)",
		ArgsUsage: "[prompt]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "save", Aliases: []string{"s"}, Usage: "Save the result to history"},
		},
		Action: func(c *cli.Context) error {
			promptText, err := promptArg(c)
			if err != nil {
				return outputError(err)
			}

			result, err := ops.Optimize(cfg, ops.OptimizeInput{Prompt: promptText})
			if err != nil {
				return outputError(err)
			}

			if c.Bool("save") {
				saved, err := ops.Save(db, ops.SaveInput{
					OriginalPrompt:   result.OriginalPrompt,
					OptimizedPrompt:  result.OptimizedPrompt,
					EstimatedSavings: result.Stats.EstimatedSavings,
				})
				switch {
				case err == nil:
					return outputJSON(map[string]any{
						"result": result,
						"saved":  saved,
					})
				case errors.Is(err, errors.ErrDuplicate):
					return outputJSON(map[string]any{
						"result":        result,
						"already_saved": true,
					})
				default:
					return outputError(err)
				}
			}

			return outputJSON(result)
		},
	}
}

// analyzeCmd creates the analyze command.
func analyzeCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Analyze a prompt without rewriting it",
		ArgsUsage: "[text]",
		Action: func(c *cli.Context) error {
			text, err := promptArg(c)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(analysis.Analyze(text, cfg.SavingsPerTokenKG))
		},
	}
}

// historyCmd creates the history command.
func historyCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List saved optimizations, most recent first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(db, ops.ListInput{
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// latestCmd creates the latest command.
func latestCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "latest",
		Usage: "Get the most recently saved optimization",
		Action: func(c *cli.Context) error {
			output, err := ops.Latest(db)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// showCmd creates the show command.
func showCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a saved optimization by ID",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("id argument is required"))
			}

			output, err := ops.Get(db, ops.GetInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// clearCmd creates the clear command.
func clearCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Delete the entire optimization history",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "Skip the confirmation check"},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("force") {
				return outputError(errors.NewInvalidRequest("pass --force to delete the entire history"))
			}

			output, err := ops.Clear(db)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// reportCmd creates the report command.
func reportCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Aggregate statistics across the saved history",
		Action: func(c *cli.Context) error {
			output, err := ops.Report(db)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Value: "127.0.0.1", Usage: "Address to bind to"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8737, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(db, cfg, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// Helper functions

// promptArg reads the prompt text from the first positional argument, or
// from stdin when piped.
func promptArg(c *cli.Context) (string, error) {
	if c.NArg() > 0 {
		return strings.Join(c.Args().Slice(), " "), nil
	}
	if stdinHasData() {
		text, err := readStdin()
		if err != nil {
			return "", errors.NewInternal(err)
		}
		if text != "" {
			return text, nil
		}
	}
	return "", errors.NewInvalidRequest("prompt must be given as an argument or piped via stdin")
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if bErr, ok := err.(*errors.BonsaiError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", bErr.Code, bErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
