package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abhisek/coursekit/internal/course"
)

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List and validate course files",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		courses, err := loadCourses(cfg)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		for _, c := range courses {
			src := c.Source
			if src == "" {
				src = "(built-in)"
			}
			fmt.Fprintf(w, "%-8s %-40s %2d weeks  %s\n", c.ID, c.Title, len(c.Weeks), src)
		}
		return nil
	},
}

var errInvalidCourses = errors.New("invalid course files")

var coursesValidateCmd = &cobra.Command{
	Use:   "validate [files or globs...]",
	Short: "Check course files against the schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		patterns := args
		if len(patterns) == 0 {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			patterns = cfg.Courses
		}
		if len(patterns) == 0 {
			return errors.New("no course files given and none configured")
		}

		var paths []string
		for _, p := range patterns {
			matches, err := doublestar.FilepathGlob(p)
			if err != nil {
				return fmt.Errorf("glob %q: %w", p, err)
			}
			paths = append(paths, matches...)
		}
		if len(paths) == 0 {
			return errors.New("no course files matched")
		}
		if bad := validateCourses(cmd.OutOrStdout(), paths); bad > 0 {
			return fmt.Errorf("%w: %d of %d", errInvalidCourses, bad, len(paths))
		}
		return nil
	},
}

func init() {
	coursesCmd.AddCommand(coursesValidateCmd)
}

// validateCourses loads each path and reports the result. It returns the
// number of files that failed.
func validateCourses(w io.Writer, paths []string) int {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	bad := 0
	seen := make(map[string]string)
	for _, p := range paths {
		c, err := course.Load(p)
		if err != nil {
			red.Fprintf(w, "✗ %s: %v\n", p, err)
			bad++
			continue
		}
		if prev, ok := seen[c.ID]; ok {
			red.Fprintf(w, "✗ %s: course id %q already used by %s\n", p, c.ID, prev)
			bad++
			continue
		}
		seen[c.ID] = p
		green.Fprintf(w, "✓ %s: %s (%d weeks)\n", p, c.Title, len(c.Weeks))
		if n := c.MissingHindi(); n > 0 {
			yellow.Fprintf(w, "  %d fields have no Hindi text; run coursekit translate %s\n", n, p)
		}
	}
	return bad
}
