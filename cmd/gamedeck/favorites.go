package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mmcdole/gamedeck/internal/classify"
	"github.com/mmcdole/gamedeck/internal/domain"
	"github.com/mmcdole/gamedeck/internal/search"
	"gopkg.in/yaml.v3"
)

// favoriteRecord is the export shape of one favorite
type favoriteRecord struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Category    string `yaml:"category"`
	Thumbnail   string `yaml:"thumbnail,omitempty"`
	Description string `yaml:"description,omitempty"`
}

func runFavorites(a *app, args []string, w io.Writer) error {
	fs := flag.NewFlagSet("favorites", flag.ContinueOnError)
	asYAML := fs.Bool("yaml", false, "print as YAML")
	query := fs.String("q", "", "only favorites matching this title")
	clearAll := fs.Bool("clear", false, "remove every favorite")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *clearAll {
		n, err := a.favs.Clear()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "Removed %d favorites.\n", n)
		return err
	}

	items := search.RankFavorites(*query, a.favs.List())
	if err := writeFavorites(w, items, *asYAML); err != nil {
		return err
	}
	if strings.TrimSpace(*query) != "" && !*asYAML {
		_, err := fmt.Fprintf(w, "\n%d of %d favorites match %q\n", len(items), a.favs.Len(), *query)
		return err
	}
	return nil
}

func writeFavorites(w io.Writer, items []domain.Item, asYAML bool) error {
	if asYAML {
		records := make([]favoriteRecord, len(items))
		for i, it := range items {
			records[i] = favoriteRecord{
				ID:          it.ID.String(),
				Title:       it.Title,
				Category:    string(classify.Classify(it)),
				Thumbnail:   it.Thumbnail,
				Description: it.Description,
			}
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(map[string][]favoriteRecord{"favorites": records}); err != nil {
			return fmt.Errorf("failed to encode favorites: %w", err)
		}
		return enc.Close()
	}

	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No favorites yet.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", it.ID, it.Title, classify.Classify(it).Title())
	}
	return tw.Flush()
}
