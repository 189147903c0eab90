package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/coursekit/internal/app"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Launch the course TUI",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

// runApp opens the store, loads courses and launches the TUI.
func runApp(cmd *cobra.Command) error {
	cfg, st, courses, err := setup(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	return app.Run(app.Options{
		Config:    cfg,
		KV:        st.KV(),
		EventRepo: st.EventRepo(),
		Courses:   courses,
	})
}
