// Command namevalidate checks Japanese full names for kanji/romaji
// consistency: one-shot from flags, as an HTTP+WS server, or as a
// dictionary shard builder.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/peko-thunder/japanese-name-validator/api"
	"github.com/peko-thunder/japanese-name-validator/dictbuild"
	"github.com/peko-thunder/japanese-name-validator/namecheck"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "validate":
		err = runValidate(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "build-dict":
		err = runBuildDict(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		slog.Error(os.Args[1], "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: namevalidate <validate|serve|build-dict> [flags]")
}

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	dictDir := fs.String("dict", "data", "dictionary directory")
	kanjiSei := fs.String("kanji-sei", "", "surname in kanji")
	kanjiMei := fs.String("kanji-mei", "", "given name in kanji")
	romajiSei := fs.String("romaji-sei", "", "claimed surname romaji")
	romajiMei := fs.String("romaji-mei", "", "claimed given-name romaji")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *kanjiSei == "" || *kanjiMei == "" || *romajiSei == "" || *romajiMei == "" {
		return fmt.Errorf("validate: -kanji-sei, -kanji-mei, -romaji-sei and -romaji-mei are all required")
	}

	matcher, err := newMatcher(*dictDir)
	if err != nil {
		return err
	}
	result, err := matcher.Validate(*kanjiSei, *kanjiMei, *romajiSei, *romajiMei)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	dictDir := fs.String("dict", "data", "dictionary directory")
	addr := fs.String("addr", ":8080", "HTTP listen address")
	auditDB := fs.String("audit-db", "audit.sqlite3", "audit log SQLite path, empty to disable")
	if err := fs.Parse(args); err != nil {
		return err
	}

	matcher, err := newMatcher(*dictDir)
	if err != nil {
		return err
	}
	srv, err := api.New(matcher, *auditDB)
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return srv.Serve(*addr)
}

func runBuildDict(args []string) error {
	fs := flag.NewFlagSet("build-dict", flag.ExitOnError)
	sourceDir := fs.String("source", "workspace/namedic/data", "raw namedic source directory")
	outputDir := fs.String("output", "data/surnames", "shard output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	written, err := dictbuild.Build(*sourceDir, *outputDir)
	if err != nil {
		return err
	}
	slog.Info("build-dict complete", "shards_written", written)
	return nil
}

func newMatcher(dictDir string) (*namecheck.NameMatcher, error) {
	dict, err := namecheck.NewDictionaryStore(dictDir)
	if err != nil {
		return nil, err
	}
	resolver := namecheck.NewReadingResolver(dict)
	romanizer := namecheck.NewRomanizer(namecheck.DefaultVariantBudget)
	return namecheck.NewNameMatcher(resolver, romanizer), nil
}
