package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/speechmark/internal/classifications"
	"github.com/JaimeStill/speechmark/internal/infrastructure"
	"github.com/JaimeStill/speechmark/internal/labels"
	"github.com/JaimeStill/speechmark/internal/tokens"
)

func newTagCmd(load loader) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "tag [file]",
		Short: "Classify a file (or stdin) once and print its semantic tokens",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}

			text, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			logger := infrastructure.NewLogger(&cfg.Logging, cmd.ErrOrStderr())
			infra, err := infrastructure.NewWithLogger(cfg, logger)
			if err != nil {
				return err
			}

			preds, err := infra.Classifier.Classify(cmd.Context(), text)
			if err != nil {
				return fmt.Errorf("classify: %w", err)
			}
			spans := infra.Gate.Apply("tag", preds)
			toks := tokens.Encode(text, spans, infra.Labels)

			switch format {
			case "json":
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string][]uint32{"data": tokens.Flatten(toks)})
			case "table":
				return writeTable(cmd.OutOrStdout(), spans, infra.Labels)
			default:
				return fmt.Errorf("unknown format %q: use json or table", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table or json")
	return cmd
}

func readInput(stdin io.Reader, args []string) (string, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(data), nil
}

func writeTable(w io.Writer, spans []classifications.Span, m *labels.Map) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "START\tEND\tWORD\tLABEL\tSCORE\tTOKEN")

	for _, s := range spans {
		token := "-"
		if d, ok := m.Get(s.Category); ok {
			token = d.Type.String()
			if mods := d.Modifiers.List(); len(mods) > 0 {
				names := make([]string, len(mods))
				for i, mod := range mods {
					names[i] = mod.String()
				}
				token += "[" + strings.Join(names, ",") + "]"
			}
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%.2f\t%s\n", s.Start, s.End, s.Word, s.Category, s.Score, token)
	}
	return tw.Flush()
}

