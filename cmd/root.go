package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/coursekit/internal/config"
	"github.com/abhisek/coursekit/internal/course"
	"github.com/abhisek/coursekit/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "coursekit",
	Short: "Bilingual freight dispatch course in your terminal",
	Long: "coursekit — English/Hindi freight dispatcher course with quizzes, narration,\n" +
		"progress tracking and the Madam JI AI tutor.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides COURSEKIT_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default $XDG_CONFIG_HOME/coursekit/config.yaml)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(studentCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(translateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(coursesCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads .env, then the config file named by --config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openStore resolves the database path (--db flag first) and opens it.
func openStore(cmd *cobra.Command, cfg *config.Config) (*store.Store, error) {
	flag, _ := cmd.Flags().GetString("db")
	dbPath, err := cfg.ResolveDBPath(flag)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}

// loadCourses loads the configured course globs. With none configured, or
// none matching, the built-in course is used.
func loadCourses(cfg *config.Config) ([]*course.Course, error) {
	if len(cfg.Courses) == 0 {
		return []*course.Course{course.Default()}, nil
	}
	courses, err := course.LoadGlob(cfg.Courses)
	if err != nil {
		return nil, fmt.Errorf("load courses: %w", err)
	}
	if len(courses) == 0 {
		return []*course.Course{course.Default()}, nil
	}
	return courses, nil
}

// setup loads config, store and courses for commands that need all three.
func setup(cmd *cobra.Command) (*config.Config, *store.Store, []*course.Course, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	courses, err := loadCourses(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	st, err := openStore(cmd, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, st, courses, nil
}
