package scoreforge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/scoreforge/scoreforge/pkg/instruments"
	"github.com/scoreforge/scoreforge/pkg/openai"
	"github.com/scoreforge/scoreforge/pkg/params"
	"github.com/scoreforge/scoreforge/pkg/score"
	"github.com/scoreforge/scoreforge/pkg/storage"
)

type Config struct {
	Key    string        `yaml:"key"`
	Model  string        `yaml:"model"`
	Proxy  string        `yaml:"proxy"`
	Wait   time.Duration `yaml:"wait"`
	Debug  bool          `yaml:"debug"`
	Seed   int64         `yaml:"seed"`
	DBType string        `yaml:"db-type"`
	DBConn string        `yaml:"db-conn"`
}

// GenerateSong turns a prompt into a multi-instrument score and writes it as
// a MIDI file. When a database is configured the generation is recorded.
func GenerateSong(ctx context.Context, cfg *Config, prompt, output string) error {
	if cfg.Key == "" {
		return errors.New("scoreforge: missing openai key")
	}
	if prompt == "" {
		return errors.New("scoreforge: missing prompt")
	}
	if output == "" {
		output = "generated_song.mid"
	}

	httpClient := &http.Client{
		Timeout: 2 * time.Minute,
	}
	if cfg.Proxy != "" {
		u, err := url.Parse(cfg.Proxy)
		if err != nil {
			return fmt.Errorf("scoreforge: invalid proxy URL: %w", err)
		}
		httpClient.Transport = &http.Transport{
			Proxy: http.ProxyURL(u),
		}
	}
	client := openai.New(&openai.Config{
		Debug:  cfg.Debug,
		Token:  cfg.Key,
		Model:  cfg.Model,
		Wait:   cfg.Wait,
		Client: httpClient,
	})

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rnd := rand.New(rand.NewSource(seed))

	p := params.Resolve(ctx, client, prompt)
	log.Printf("scoreforge: parameters: %d bpm, %s, key %s, %d measures, form %s, style %s\n",
		p.Tempo, p.TimeSignature, p.Key, p.Measures, p.Form, p.Style)

	setup := instruments.Resolve(ctx, client, prompt)

	synth := score.NewSynthesizer(client, rnd, cfg.Debug)
	sc, err := synth.Synthesize(ctx, prompt, p, setup)
	if err != nil {
		return fmt.Errorf("scoreforge: couldn't generate song: %w", err)
	}
	if err := sc.WriteFile(output); err != nil {
		return fmt.Errorf("scoreforge: couldn't write %s: %w", output, err)
	}
	log.Printf("scoreforge: wrote %s (%d parts)\n", output, len(sc.Parts))

	if cfg.DBConn != "" {
		if err := record(ctx, cfg, prompt, p, len(sc.Parts), output); err != nil {
			log.Printf("scoreforge: couldn't record generation: %v\n", err)
		}
	}
	return nil
}

func record(ctx context.Context, cfg *Config, prompt string, p params.Parameters, parts int, output string) error {
	dbType := cfg.DBType
	if dbType == "" {
		dbType = "sqlite"
	}
	store, err := storage.New(dbType, cfg.DBConn, cfg.Debug)
	if err != nil {
		return err
	}
	if err := store.Start(ctx); err != nil {
		return err
	}
	if err := store.Migrate(ctx); err != nil {
		return err
	}
	js, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("scoreforge: couldn't marshal parameters: %w", err)
	}
	return store.SetGeneration(ctx, &storage.Generation{
		ID:         ulid.Make().String(),
		Prompt:     prompt,
		Style:      p.Style,
		Key:        p.Key,
		Tempo:      p.Tempo,
		Measures:   p.Measures,
		Parameters: string(js),
		Parts:      parts,
		Output:     output,
	})
}
