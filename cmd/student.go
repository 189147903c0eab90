package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/abhisek/coursekit/internal/course"
	"github.com/abhisek/coursekit/internal/student"
)

var studentCmd = &cobra.Command{
	Use:   "student",
	Short: "Show or edit the student profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, _, err := setup(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		p := student.New(st.KV(), nil).Get(cmd.Context())
		fmt.Fprintf(cmd.OutOrStdout(), "Name:   %s\nCourse: %s\n", p.DisplayName(), p.DisplayCourse())
		return nil
	},
}

var studentSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the student's name and course (prompts for missing values)",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, courses, err := setup(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		records := student.New(st.KV(), nil)
		current := records.Get(cmd.Context())

		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			prompt := promptui.Prompt{
				Label:    "Student name",
				Default:  current.Name,
				Validate: nonBlank,
			}
			if name, err = prompt.Run(); err != nil {
				return fmt.Errorf("name: %w", err)
			}
		}

		courseID, _ := cmd.Flags().GetString("course")
		if courseID == "" {
			if courseID, err = pickCourse(courses, current.Course); err != nil {
				return err
			}
		} else if !hasCourse(courses, courseID) {
			return fmt.Errorf("unknown course %q", courseID)
		}

		p := student.Profile{Name: strings.TrimSpace(name), Course: courseID}
		if err := records.Save(cmd.Context(), p); err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Saved %s on %s\n", p.DisplayName(), p.Course)
		return nil
	},
}

func init() {
	studentSetCmd.Flags().String("name", "", "Student name")
	studentSetCmd.Flags().String("course", "", "Course ID")
	studentCmd.AddCommand(studentSetCmd)
}

func nonBlank(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("must not be blank")
	}
	return nil
}

func hasCourse(courses []*course.Course, id string) bool {
	for _, c := range courses {
		if c.ID == id {
			return true
		}
	}
	return false
}

// pickCourse selects a course interactively. A single course is chosen
// without prompting.
func pickCourse(courses []*course.Course, current string) (string, error) {
	if len(courses) == 1 {
		return courses[0].ID, nil
	}
	items := make([]string, len(courses))
	cursor := 0
	for i, c := range courses {
		items[i] = fmt.Sprintf("%s (%s)", c.Title, c.ID)
		if c.ID == current || c.Title == current {
			cursor = i
		}
	}
	sel := promptui.Select{
		Label:     "Course",
		Items:     items,
		CursorPos: cursor,
	}
	i, _, err := sel.Run()
	if err != nil {
		return "", fmt.Errorf("course selection: %w", err)
	}
	return courses[i].ID, nil
}
