package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tulen-chik/reshalka/internal/catalog"
)

// CatalogOptions holds flags for the catalog command.
type CatalogOptions struct {
	*RootOptions
	Kinds bool
}

// CatalogListing is the JSON payload of catalog.
type CatalogListing struct {
	Source      string            `json:"source"`
	Fingerprint string            `json:"fingerprint"`
	Categories  []CategoryListing `json:"categories"`
}

// CategoryListing describes one category.
type CategoryListing struct {
	Name    string          `json:"name"`
	Puzzles []PuzzleListing `json:"puzzles"`
}

// PuzzleListing describes one puzzle.
type PuzzleListing struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Prompt string `json:"prompt,omitempty"`
	Slots  int    `json:"slots"`
	Retry  string `json:"retry"`
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "catalog [file]",
		Short: "List the categories and puzzles of a catalog",
		Long: `List the categories and puzzles of a catalog in play order.
Without a file the configured catalog is listed, or the builtin one.

Examples:
  reshalka catalog
  reshalka catalog ./home.yaml --format json
  reshalka catalog --kinds`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.Settings().Catalog
			if len(args) == 1 {
				path = args[0]
			}
			return runCatalog(opts, cmd, path)
		},
	}
	cmd.Flags().BoolVar(&opts.Kinds, "kinds", false, "list the known puzzle kinds instead")
	return cmd
}

func runCatalog(opts *CatalogOptions, cmd *cobra.Command, path string) error {
	out := opts.formatter(cmd)

	if opts.Kinds {
		kinds := catalog.Kinds()
		return out.Success(strings.Join(kinds, "\n")+"\n", kinds)
	}

	cat, err := catalog.Load(path)
	if err != nil {
		code := ExitCommandError
		if catalog.IsValidation(err) {
			code = ExitFailure
		}
		out.Error(ErrCodeCatalog, "failed to load catalog", err.Error())
		return WrapExitError(code, "failed to load catalog", err)
	}

	listing := CatalogListing{Source: cat.Source, Fingerprint: cat.Fingerprint}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", cat.Source, shortFingerprint(cat.Fingerprint))
	for _, c := range cat.Categories {
		cl := CategoryListing{Name: c.Name}
		fmt.Fprintf(&b, "\n%s\n", c.Name)
		for i, p := range c.Puzzles {
			pl := PuzzleListing{
				Name:   p.Name,
				Kind:   p.Kind,
				Prompt: p.Prompt,
				Slots:  len(p.Layout.Slots),
				Retry:  p.Retry.String(),
			}
			cl.Puzzles = append(cl.Puzzles, pl)
			fmt.Fprintf(&b, "  %d. %-16s %-9s %d slots\n", i+1, pl.Name, pl.Kind, pl.Slots)
		}
		listing.Categories = append(listing.Categories, cl)
	}
	return out.Success(b.String(), listing)
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
