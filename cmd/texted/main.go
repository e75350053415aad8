package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
)

// version is set at build time via ldflags.
var version = "dev"

// CLI defines the texted command line.
var CLI struct {
	Config    string `short:"c" help:"Configuration file path" default:"texted.yaml" type:"path"`
	Verbose   bool   `short:"v" help:"Enable debug logging"`
	LogFormat string `help:"Log format (text or json); defaults to the config value"`

	Serve struct{} `cmd:"" default:"1" help:"Serve the site"`

	Render struct {
		Path     string `arg:"" help:"Content file to render" type:"existingfile"`
		Preview  bool   `short:"p" help:"Render the preview only"`
		MaxLines int    `help:"Stop the preview after this many lines (0 = no limit)"`
		BreakTag string `help:"Preview break tag" default:"<!-- more -->"`
		Prefix   string `help:"Prefix for relative image links in previews"`
		Unsafe   bool   `help:"Pass raw HTML in Markdown through"`
	} `cmd:"" help:"Render one content file to stdout"`

	New struct {
		Title  string   `arg:"" help:"Post title"`
		Dir    string   `short:"d" help:"Posts directory; defaults to the configured one"`
		Author string   `short:"a" help:"Post author"`
		Tags   []string `short:"t" help:"Post tags"`
		HTML   bool     `help:"Create an HTML post instead of Markdown"`
	} `cmd:"" help:"Create a new post directory with a fresh header"`

	Init struct {
		Dir   string `arg:"" optional:"" help:"Directory to create the site in" default:"."`
		Name  string `help:"Site name"`
		Force bool   `help:"Overwrite existing files"`
	} `cmd:"" help:"Scaffold a new site"`

	Version struct{} `cmd:"" help:"Print the texted version"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("texted"),
		kong.Description("A blog server for directories of Markdown and HTML files."),
		kong.UsageOnError(),
	)

	setupLogging(levelFor(CLI.Verbose, ""), CLI.LogFormat)

	var err error
	switch ctx.Command() {
	case "serve":
		err = runServe(CLI.Config, CLI.Verbose, CLI.LogFormat)
	case "render <path>":
		err = runRender(os.Stdout, os.Stderr, renderOptions{
			Path:     CLI.Render.Path,
			Preview:  CLI.Render.Preview,
			MaxLines: CLI.Render.MaxLines,
			BreakTag: CLI.Render.BreakTag,
			Prefix:   CLI.Render.Prefix,
			Unsafe:   CLI.Render.Unsafe,
		})
	case "new <title>":
		err = runNew(CLI.Config, newOptions{
			Title:  CLI.New.Title,
			Dir:    CLI.New.Dir,
			Author: CLI.New.Author,
			Tags:   CLI.New.Tags,
			HTML:   CLI.New.HTML,
		})
	case "init", "init <dir>":
		err = runInit(CLI.Init.Dir, CLI.Init.Name, CLI.Init.Force)
	case "version":
		os.Stdout.WriteString("texted " + version + "\n")
	default:
		err = ctx.PrintUsage(false)
	}
	if err != nil {
		slog.Error("texted failed", "command", ctx.Command(), "error", err)
		os.Exit(1)
	}
}

func levelFor(verbose bool, configured string) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(configured) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setupLogging(level slog.Level, format string) {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if format == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}
