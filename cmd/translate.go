package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/coursekit/internal/course"
	"github.com/abhisek/coursekit/internal/llm"
	"github.com/abhisek/coursekit/internal/translate"
)

var translateCmd = &cobra.Command{
	Use:   "translate <course.yaml>",
	Short: "Fill in missing Hindi titles and bodies of a course file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := course.Load(args[0])
		if err != nil {
			return err
		}
		missing := c.MissingHindi()
		if missing == 0 {
			color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "✓ Nothing to translate.")
			return nil
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

		var tr translate.Translator
		switch engine, _ := cmd.Flags().GetString("engine"); engine {
		case "google":
			tr = translate.NewGoogle()
		case "llm":
			p, err := llm.NewProvider(ctx, cfg.ChatLLM(), st.EventRepo())
			if err != nil {
				return fmt.Errorf("llm translator: %w", err)
			}
			tr = translate.NewLLM(p)
		default:
			return fmt.Errorf("unknown engine %q: want google or llm", engine)
		}
		if noCache, _ := cmd.Flags().GetBool("no-cache"); !noCache {
			tr = translate.NewCached(tr, st.KV(), translate.WithLogger(log.New(cmd.ErrOrStderr(), "", 0)))
		}

		bar := progressbar.NewOptions(missing,
			progressbar.OptionSetDescription("Translating"),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		filled, ferr := translate.FillCourse(ctx, c, tr, func(done, total int) {
			bar.ChangeMax(total)
			_ = bar.Set(done)
		})
		_ = bar.Finish()

		// Keep whatever was filled before a failure.
		if filled > 0 {
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				out = args[0]
			}
			if err := writeCourse(out, c); err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Filled %d fields, wrote %s\n", filled, out)
		}
		if ferr != nil {
			return ferr
		}
		if left := c.MissingHindi(); left > 0 {
			color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(), "%d fields still have no Hindi text.\n", left)
		}
		return nil
	},
}

func init() {
	translateCmd.Flags().StringP("engine", "e", "google", "Translator: google or llm")
	translateCmd.Flags().StringP("out", "o", "", "Output file (default: overwrite the input)")
	translateCmd.Flags().Bool("no-cache", false, "Do not reuse stored translations")
}

func writeCourse(path string, c *course.Course) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode course: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write course: %w", err)
	}
	return nil
}
