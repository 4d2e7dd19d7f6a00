package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Simplici0/koshtorys/internal/catalog"
	"github.com/Simplici0/koshtorys/internal/pricing"
	"github.com/Simplici0/koshtorys/internal/quoteform"
	"github.com/Simplici0/koshtorys/internal/render"
)

var (
	renderQuote      string
	renderOut        string
	renderBackground string
	renderTable      bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a quote file to PDF",
	Long: `Reads a ring pair from a YAML file, prices it against the catalog and
writes the quote sheet. Photo paths are relative to the quote file.

  woman:
    size: "16.5"
    metal: Gold 585
    weight: "4.2"
    workmanship: premium
    stones: {type: diamond, size: "1.50", quantity: "3"}
  man:
    metal: Gold 585
    weight: "6"
    workmanship: premium
  photos: [rings.jpg]`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		in, err := readQuoteFile(renderQuote)
		if err != nil {
			return err
		}

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		store := catalog.NewStore(database)
		cat, err := store.Snapshot(cmd.Context())
		if err != nil {
			return err
		}
		doc, err := quoteform.NewValidator().Build(in, cat)
		if err != nil {
			return err
		}

		if renderTable {
			return printTable(cmd.OutOrStdout(), doc)
		}

		if renderBackground != "" {
			doc.Background = render.ResolveBackground(filepath.Dir(renderBackground), filepath.Base(renderBackground))
		} else {
			settings, err := store.Settings(cmd.Context())
			if err != nil {
				return err
			}
			doc.Background = render.ResolveBackground(cfg.AssetsDir, settings.Background)
		}

		var buf bytes.Buffer
		r := render.New(render.Config{FontDir: cfg.FontDir, Logger: logger})
		if err := r.Render(&buf, doc); err != nil {
			return err
		}
		if err := writeOutput(cmd.OutOrStdout(), renderOut, buf.Bytes()); err != nil {
			return err
		}
		logger.Info().
			Str("out", renderOut).
			Str("size", humanize.Bytes(uint64(buf.Len()))).
			Str("pair_total", pricing.FormatMoney(doc.Quote.PairTotal, pricing.CurrencyMark)).
			Msg("quote rendered")
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderQuote, "quote", "q", "", "YAML quote file [REQUIRED]")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "koshtorys.pdf", "output file, - for stdout")
	renderCmd.Flags().StringVar(&renderBackground, "background", "", "background PNG or JPEG, falls back to background.png beside it (default from settings)")
	renderCmd.Flags().BoolVar(&renderTable, "table", false, "print the table as text instead of writing a PDF")
	_ = renderCmd.MarkFlagRequired("quote")
}

// readQuoteFile decodes a quote file. Unknown keys are rejected so a typo
// never silently drops an option.
func readQuoteFile(path string) (quoteform.QuoteInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return quoteform.QuoteInput{}, eris.Wrap(err, "open quote file")
	}
	defer f.Close()

	var in quoteform.QuoteInput
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&in); err != nil && err != io.EOF {
		return quoteform.QuoteInput{}, eris.Wrapf(err, "decode %s", path)
	}

	base := filepath.Dir(path)
	for i, p := range in.Photos {
		if p != "" && !filepath.IsAbs(p) {
			in.Photos[i] = filepath.Join(base, p)
		}
	}
	return in, nil
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "-" {
		_, err := stdout.Write(data)
		return eris.Wrap(err, "write pdf to stdout")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "write pdf")
	}
	return nil
}

func printTable(w io.Writer, doc render.Document) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	cells, _ := render.Grid(render.BuildRows(doc, pricing.CurrencyMark))
	for _, row := range cells {
		if render.Banded(row) {
			fmt.Fprintf(tw, "-- %s --\n", row[0])
			continue
		}
		fmt.Fprintln(tw, strings.Join(row[:], "\t"))
	}
	return tw.Flush()
}
