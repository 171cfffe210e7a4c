package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/ffyaml"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"github.com/scoreforge/scoreforge"
)

// Build flags
var version = ""
var commit = ""
var date = ""

func main() {
	// Create signal based context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := godotenv.Load(); err == nil {
		log.Println("loaded .env file")
	}

	// Launch command
	cmd := newCommand()
	if err := cmd.ParseAndRun(ctx, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func newCommand() *ffcli.Command {
	fs := flag.NewFlagSet("scoreforge", flag.ExitOnError)

	return &ffcli.Command{
		ShortUsage: "scoreforge [flags] <subcommand>",
		FlagSet:    fs,
		Exec: func(context.Context, []string) error {
			return flag.ErrHelp
		},
		Subcommands: []*ffcli.Command{
			newVersionCommand(),
			newSongCommand(),
		},
	}
}

func newVersionCommand() *ffcli.Command {
	return &ffcli.Command{
		Name:       "version",
		ShortUsage: "scoreforge version",
		ShortHelp:  "print version",
		Exec: func(ctx context.Context, args []string) error {
			v := version
			if v == "" {
				if buildInfo, ok := debug.ReadBuildInfo(); ok {
					v = buildInfo.Main.Version
				}
			}
			if v == "" {
				v = "dev"
			}
			versionFields := []string{v}
			if commit != "" {
				versionFields = append(versionFields, commit)
			}
			if date != "" {
				versionFields = append(versionFields, date)
			}
			fmt.Println(strings.Join(versionFields, " "))
			return nil
		},
	}
}

func newSongCommand() *ffcli.Command {
	cmd := "song"
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	_ = fs.String("config", "", "config file (optional)")

	cfg := &scoreforge.Config{}
	fs.StringVar(&cfg.Key, "key", "", "openai api key")
	fs.StringVar(&cfg.Model, "model", "", "openai model")
	fs.StringVar(&cfg.Proxy, "proxy", "", "proxy")
	fs.DurationVar(&cfg.Wait, "wait", 1*time.Second, "wait time between generation requests")
	fs.BoolVar(&cfg.Debug, "debug", false, "debug mode")
	fs.Int64Var(&cfg.Seed, "seed", 0, "random seed (0 seeds from time)")
	fs.StringVar(&cfg.DBType, "db-type", "sqlite", "database type (sqlite, mysql, postgres)")
	fs.StringVar(&cfg.DBConn, "db-conn", "", "database connection string (optional)")

	var prompt, output string
	fs.StringVar(&prompt, "prompt", "", "prompt to generate the song (reads stdin if empty)")
	fs.StringVar(&output, "output", "generated_song.mid", "output midi file")

	return &ffcli.Command{
		Name:       cmd,
		ShortUsage: fmt.Sprintf("scoreforge %s [flags]", cmd),
		Options: []ff.Option{
			ff.WithConfigFileFlag("config"),
			ff.WithConfigFileParser(ffyaml.Parser),
			ff.WithEnvVarPrefix("SCOREFORGE"),
		},
		ShortHelp: fmt.Sprintf("scoreforge %s command", cmd),
		FlagSet:   fs,
		Exec: func(ctx context.Context, args []string) error {
			if prompt == "" {
				fmt.Print("Enter a prompt to generate your song: ")
				scanner := bufio.NewScanner(os.Stdin)
				if scanner.Scan() {
					prompt = strings.TrimSpace(scanner.Text())
				}
			}
			return scoreforge.GenerateSong(ctx, cfg, prompt, output)
		},
	}
}
