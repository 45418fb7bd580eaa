package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/jarvis/internal"
	"github.com/starford/jarvis/internal/assistant"
	"github.com/starford/jarvis/internal/history"
	"github.com/starford/jarvis/internal/intent"
	pkgconfig "github.com/starford/jarvis/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// withApp builds the application for a one-shot command. Logs go to stderr so
// stdout carries only the command output.
func withApp(ctx context.Context, cmd *cli.Command, fn func(context.Context, *internal.App) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	app, err := internal.New(
		internal.WithConfig(cfg),
		internal.WithLogOutput(os.Stderr),
		internal.WithVersion(version),
	)
	if err != nil {
		return fmt.Errorf("app init error: %w", err)
	}
	defer app.Close()
	return fn(ctx, app)
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func printReply(w io.Writer, r assistant.Reply) error {
	fmt.Fprintln(w, r.Reply)
	if !r.Success {
		return cli.Exit("", 1)
	}
	return nil
}

func ask(ctx context.Context, cmd *cli.Command) error {
	msg := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(msg) == "" {
		return fmt.Errorf("usage: %s ask <message>", cmd.Root().Name)
	}
	return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
		reply, err := app.Service.Chat(ctx, assistant.ChatRequest{
			Session: cmd.String("session"),
			Message: msg,
		})
		if err != nil {
			return err
		}
		return printReply(cmd.Root().Writer, reply)
	})
}

func execIntent(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.Args().First()
	if raw == "" || raw == "-" {
		data, err := io.ReadAll(cmd.Root().Reader)
		if err != nil {
			return fmt.Errorf("read intent: %w", err)
		}
		raw = string(data)
	}
	req, err := intent.Decode([]byte(raw))
	if err != nil {
		return err
	}
	return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
		return printReply(cmd.Root().Writer, app.Service.Execute(ctx, req))
	})
}

// runAction runs one action with key=value parameters.
func runAction(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return fmt.Errorf("usage: %s run <action> [param=value ...]", cmd.Root().Name)
	}
	params := make(map[string]any, len(args)-1)
	for _, kv := range args[1:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return fmt.Errorf("parameter %q is not key=value", kv)
		}
		params[k] = v
	}
	return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
		return printReply(cmd.Root().Writer, app.Service.Run(ctx, args[0], params))
	})
}

func listActions(ctx context.Context, cmd *cli.Command) error {
	return withApp(ctx, cmd, func(_ context.Context, app *internal.App) error {
		specs := app.Service.Actions()
		if cmd.Bool("json") {
			enc := json.NewEncoder(cmd.Root().Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(specs)
		}
		tw := tabwriter.NewWriter(cmd.Root().Writer, 0, 4, 2, ' ', 0)
		for _, s := range specs {
			names := make([]string, 0, len(s.Params))
			for _, p := range s.Params {
				n := p.Name
				if !p.Required {
					n += "?"
				}
				names = append(names, n)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.Category, strings.Join(names, ","), s.Description)
		}
		return tw.Flush()
	})
}

func listTrash(ctx context.Context, cmd *cli.Command) error {
	return withApp(ctx, cmd, func(_ context.Context, app *internal.App) error {
		entries, err := app.Service.Trash()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.Root().Writer, "The trash is empty.")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.Root().Writer, 0, 4, 2, ' ', 0)
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.DeletedAt.Format("2006-01-02 15:04:05"), e.Original, e.Name)
		}
		return tw.Flush()
	})
}

func restoreTrash(ctx context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("usage: %s trash restore <name>", cmd.Root().Name)
	}
	return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
		return printReply(cmd.Root().Writer, app.Service.Restore(ctx, name, cmd.String("dest")))
	})
}

func transcribe(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("usage: %s transcribe <audio file>", cmd.Root().Name)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return withApp(ctx, cmd, func(ctx context.Context, app *internal.App) error {
		text, err := app.Service.Transcribe(ctx, f, f.Name())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.Root().Writer, text)
		return nil
	})
}

func showHistory(ctx context.Context, cmd *cli.Command) error {
	return withApp(ctx, cmd, func(_ context.Context, app *internal.App) error {
		limit := int(cmd.Int("limit"))
		var (
			turns []history.Turn
			err   error
		)
		if q := cmd.String("query"); q != "" {
			turns, err = app.Service.SearchHistory(q, limit)
		} else {
			turns, err = app.Service.History(cmd.String("session"), limit)
		}
		if err != nil {
			return err
		}
		for _, t := range turns {
			fmt.Fprintf(cmd.Root().Writer, "[%s] %s\n> %s\n%s\n\n",
				t.CreatedAt.Format("2006-01-02 15:04"), t.Session, t.User, t.Assistant)
		}
		return nil
	})
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	return withApp(ctx, cmd, func(_ context.Context, app *internal.App) error {
		return app.ServeMCP()
	})
}

func main() {
	cmd := &cli.Command{
		Name:    "jarvis",
		Usage:   "Desktop assistant that turns spoken or written requests into local actions",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and event stream",
				Action: serve,
			},
			{
				Name:      "ask",
				Usage:     "Interpret a request with the language model and run it",
				ArgsUsage: "<message>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "session", Aliases: []string{"s"}, Value: "cli", Usage: "Conversation id"},
				},
				Action: ask,
			},
			{
				Name:      "exec",
				Usage:     "Run an intent JSON without the language model (- reads stdin)",
				ArgsUsage: "<intent json>",
				Action:    execIntent,
			},
			{
				Name:      "run",
				Usage:     "Run one action with key=value parameters",
				ArgsUsage: "<action> [param=value ...]",
				Action:    runAction,
			},
			{
				Name:  "actions",
				Usage: "List the available actions",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Print the catalog as JSON"},
				},
				Action: listActions,
			},
			{
				Name:  "trash",
				Usage: "Inspect and restore trashed files",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List the trash",
						Action: listTrash,
					},
					{
						Name:      "restore",
						Usage:     "Restore the most recent trashed object with this name",
						ArgsUsage: "<name>",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "dest", Aliases: []string{"d"}, Usage: "Destination directory"},
						},
						Action: restoreTrash,
					},
				},
			},
			{
				Name:      "transcribe",
				Usage:     "Transcribe an audio file",
				ArgsUsage: "<audio file>",
				Action:    transcribe,
			},
			{
				Name:  "history",
				Usage: "Show or search past conversation turns",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "session", Aliases: []string{"s"}, Value: "cli", Usage: "Conversation id"},
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Search text instead of listing a session"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Maximum turns"},
				},
				Action: showHistory,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the actions as MCP tools over stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
