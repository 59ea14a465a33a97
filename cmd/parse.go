package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/statute-cli/internal/lawparse"
	"github.com/sells-group/statute-cli/internal/model"
	"github.com/sells-group/statute-cli/internal/ocr"
)

var (
	parseLawID string
	parseOut   string
	parsePDF   bool
	parseText  bool
	parseSave  bool
)

var parseCmd = &cobra.Command{
	Use:   "parse <file.html|->",
	Short: "Parse a saved statute page into structured JSON",
	Long:  "Parses a law details page (or, with --pdf/--text, OCR text) and writes the law as JSON. Use - to read from stdin.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("parse"); err != nil {
			return err
		}
		parser, err := initParser()
		if err != nil {
			return err
		}

		law, err := parseInput(ctx, parser, args[0])
		if err != nil {
			return err
		}

		if parseSave {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.SaveLaw(ctx, law); err != nil {
				return eris.Wrap(err, "parse: save")
			}
		}

		st := law.Stats()
		zap.L().Info("parsed law",
			zap.String("law_id", law.ID),
			zap.String("name", law.Name),
			zap.Int("articles", st.Articles),
			zap.Int("amended", st.Amended),
			zap.Int("canceled", st.Canceled),
			zap.Int("flagged", st.Flagged),
		)
		return writeJSONFile(parseOut, law)
	},
}

func parseInput(ctx context.Context, parser *lawparse.Parser, path string) (*model.Law, error) {
	if parsePDF {
		if path == "-" {
			return nil, eris.New("parse: --pdf needs a file path")
		}
		text, err := ocr.NewExtractor(cfg.OCR).ExtractText(ctx, path)
		if err != nil {
			return nil, eris.Wrap(err, "parse: extract pdf text")
		}
		return parser.ParseText(text, parseLawID), nil
	}

	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	if parseText {
		return parser.ParseText(string(data), parseLawID), nil
	}
	law, err := parser.ParseHTML(ctx, bytes.NewReader(data), parseLawID)
	if err != nil {
		return nil, eris.Wrap(err, "parse")
	}
	return law, nil
}

func readInput(path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	return data, nil
}

// writeJSONFile writes v as indented JSON to path, or stdout when path is
// empty or "-".
func writeJSONFile(path string, v any) error {
	var w io.Writer = os.Stdout
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "create %s", path)
		}
		defer f.Close() //nolint:errcheck
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "write json")
}

func init() {
	parseCmd.Flags().StringVar(&parseLawID, "law-id", "", "law ID recorded in the output")
	parseCmd.Flags().StringVar(&parseOut, "out", "", "output file (default stdout)")
	parseCmd.Flags().BoolVar(&parsePDF, "pdf", false, "input is a PDF; extract text with pdftotext first")
	parseCmd.Flags().BoolVar(&parseText, "text", false, "input is plain OCR text")
	parseCmd.Flags().BoolVar(&parseSave, "save", false, "also save the parsed law to the store")
	parseCmd.MarkFlagsMutuallyExclusive("pdf", "text")
	rootCmd.AddCommand(parseCmd)
}
