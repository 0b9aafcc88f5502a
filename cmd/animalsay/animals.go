package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hammamikhairi/animalsay/internal/logger"
	"github.com/hammamikhairi/animalsay/internal/skill"
)

var animalsCmd = &cobra.Command{
	Use:   "animals",
	Short: "List known animals, their phrases and indexed sound files as YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		co, err := buildCore(cfg, logger.New(logger.LevelOff, nil))
		if err != nil {
			return err
		}
		return writeCatalog(cmd.OutOrStdout(), buildCatalog(co))
	},
}

// catalogEntry describes one canonical animal.
type catalogEntry struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases,omitempty"`
	Says    string   `yaml:"says,omitempty"`
	Code    string   `yaml:"code,omitempty"`
	Files   []string `yaml:"files,omitempty"`
}

type catalog struct {
	Lang      string         `yaml:"lang"`
	SoundsDir string         `yaml:"sounds_dir"`
	Animals   []catalogEntry `yaml:"animals"`
	// Codes with files on disk that no animal maps to.
	Orphans []string `yaml:"orphan_codes,omitempty"`
}

func buildCatalog(co *core) catalog {
	aliases := co.locale.NamedValues(skill.TableAlias)
	phrases := co.locale.NamedValues(skill.TableImitate)
	codes := co.locale.NamedValues(skill.TableSound)

	byName := make(map[string]*catalogEntry)
	entry := func(name string) *catalogEntry {
		e, ok := byName[name]
		if !ok {
			e = &catalogEntry{Name: name}
			byName[name] = e
		}
		return e
	}
	for alias, name := range aliases {
		if alias != name {
			entry(name).Aliases = append(entry(name).Aliases, alias)
		}
	}
	for name, phrase := range phrases {
		entry(name).Says = phrase
	}

	used := make(map[string]bool)
	for name, code := range codes {
		e := entry(name)
		e.Code = code
		e.Files, _ = co.index.Files(code)
		used[code] = true
	}

	c := catalog{Lang: co.locale.Lang(), SoundsDir: co.index.Dir()}
	for _, e := range byName {
		sort.Strings(e.Aliases)
		c.Animals = append(c.Animals, *e)
	}
	sort.Slice(c.Animals, func(i, j int) bool { return c.Animals[i].Name < c.Animals[j].Name })
	for _, code := range co.index.Codes() {
		if !used[code] {
			c.Orphans = append(c.Orphans, code)
		}
	}
	return c
}

func writeCatalog(w io.Writer, c catalog) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	return enc.Close()
}
