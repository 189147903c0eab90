package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abhisek/coursekit/internal/progress"
	"github.com/abhisek/coursekit/internal/store"
	"github.com/abhisek/coursekit/internal/student"
)

// browserPrefix marks the keys the browser course writes to localStorage.
const browserPrefix = "ea_"

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a browser localStorage JSON dump into the store",
	Long: "Import a browser localStorage dump, e.g. the output of\n" +
		"  JSON.stringify(localStorage)\n" +
		"Only ea_* keys are imported unless --all is given.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read dump: %w", err)
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		st, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		all, _ := cmd.Flags().GetBool("all")
		res, err := importDump(cmd.Context(), st.KV(), data, all)
		if err != nil {
			return err
		}
		res.print(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	importCmd.Flags().Bool("all", false, "Import every key, not only ea_* keys")
}

type importResult struct {
	Imported []string
	Skipped  []string
	Invalid  []string
}

func (r importResult) print(w io.Writer) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	for _, k := range r.Imported {
		green.Fprintf(w, "✓ %s\n", k)
	}
	for _, k := range r.Invalid {
		red.Fprintf(w, "✗ %s (not valid JSON)\n", k)
	}
	if len(r.Skipped) > 0 {
		yellow.Fprintf(w, "Skipped %d non-course keys: %s\n", len(r.Skipped), strings.Join(r.Skipped, ", "))
	}
	fmt.Fprintf(w, "Imported %d keys.\n", len(r.Imported))
}

// importDump copies a localStorage dump into kv. localStorage values are
// strings; non-string JSON values are stored re-encoded. The ledger and
// the student profile must hold valid JSON or they are reported invalid
// and left untouched.
func importDump(ctx context.Context, kv store.KV, data []byte, all bool) (importResult, error) {
	var dump map[string]json.RawMessage
	if err := json.Unmarshal(data, &dump); err != nil {
		return importResult{}, fmt.Errorf("parse dump: %w", err)
	}

	keys := make([]string, 0, len(dump))
	for k := range dump {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var res importResult
	for _, k := range keys {
		if !all && !strings.HasPrefix(k, browserPrefix) {
			res.Skipped = append(res.Skipped, k)
			continue
		}
		value := string(dump[k])
		var s string
		if err := json.Unmarshal(dump[k], &s); err == nil {
			value = s
		}
		if needsJSON(k) && !json.Valid([]byte(value)) {
			res.Invalid = append(res.Invalid, k)
			continue
		}
		if err := kv.Set(ctx, k, value); err != nil {
			return res, fmt.Errorf("store %s: %w", k, err)
		}
		res.Imported = append(res.Imported, k)
	}
	return res, nil
}

func needsJSON(key string) bool {
	return key == progress.LedgerKey || key == student.Key
}
