package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ideatracker/domain/core/entities"
	"ideatracker/domain/core/valueobjects"
)

func newIdeasCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ideas",
		Short: "Manage the ideas of a user",
	}

	cmd.AddCommand(
		newIdeasListCmd(app),
		newIdeasShowCmd(app),
		newIdeasAddCmd(app),
		newIdeasEditCmd(app),
	)

	return cmd
}

func newIdeasListCmd(app *App) *cobra.Command {
	var userID, sortBy string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the ideas of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			policy := entities.ParseSortPolicy(sortBy)
			if sortBy != "" && string(policy) != sortBy {
				return fmt.Errorf("unknown sort %q: use createdAt or importance", sortBy)
			}

			ideas, err := app.Ideas.List(cmd.Context(), userID, policy)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), ideas)
			}
			if len(ideas) == 0 {
				if app.interactive() {
					fmt.Fprintln(cmd.OutOrStdout(), "No ideas.")
				}
				return nil
			}
			return writeTable(cmd.OutOrStdout(), ideas, app.interactive())
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "owner user id (required)")
	cmd.Flags().StringVar(&sortBy, "sort", "", "createdAt (default) or importance")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func newIdeasShowCmd(app *App) *cobra.Command {
	var userID string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <idea-id>",
		Short: "Show one idea",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idea, err := app.Ideas.Get(cmd.Context(), userID, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), idea)
			}
			writeDetail(cmd.OutOrStdout(), idea)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "owner user id (required)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

// ideaFlags are the editable fields shared by add and edit.
type ideaFlags struct {
	title, description, importance, status, notes, color string
}

func (f *ideaFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "idea title")
	cmd.Flags().StringVar(&f.description, "description", "", "idea description")
	cmd.Flags().StringVar(&f.importance, "importance", "", "1-3 or low, medium, high")
	cmd.Flags().StringVar(&f.status, "status", "", `"New", "In Progress" or "Completed"`)
	cmd.Flags().StringVar(&f.notes, "notes", "", "free text notes")
	cmd.Flags().StringVar(&f.color, "color", "", "card color such as #FFFFFF")
}

// apply copies every flag the user set onto buffer.
func (f *ideaFlags) apply(cmd *cobra.Command, buffer *entities.Idea) error {
	changed := cmd.Flags().Changed
	if changed("title") {
		buffer.Title = f.title
	}
	if changed("description") {
		buffer.Description = f.description
	}
	if changed("importance") {
		imp, err := parseImportance(f.importance)
		if err != nil {
			return err
		}
		buffer.Importance = imp
	}
	if changed("status") {
		buffer.Status = parseStatus(f.status)
	}
	if changed("notes") {
		buffer.Notes = f.notes
	}
	if changed("color") {
		buffer.Color = f.color
	}
	return nil
}

func newIdeasAddCmd(app *App) *cobra.Command {
	var userID string
	var flags ideaFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an idea",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			buffer := entities.NewIdea()
			if err := flags.apply(cmd, buffer); err != nil {
				return err
			}
			if err := buffer.Validate(); err != nil {
				return err
			}

			saved, err := app.Ideas.Create(cmd.Context(), userID, *buffer)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created idea %s\n", saved.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "owner user id (required)")
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("description")

	return cmd
}

func newIdeasEditCmd(app *App) *cobra.Command {
	var userID string
	var flags ideaFlags

	cmd := &cobra.Command{
		Use:   "edit <idea-id>",
		Short: "Change fields of an idea; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buffer, err := app.Ideas.Get(cmd.Context(), userID, args[0])
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, buffer); err != nil {
				return err
			}
			if err := buffer.Validate(); err != nil {
				return err
			}

			if _, err := app.Ideas.Update(cmd.Context(), userID, args[0], *buffer); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated idea %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "owner user id (required)")
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func parseImportance(s string) (valueobjects.Importance, error) {
	for _, imp := range valueobjects.Importances {
		if strings.EqualFold(s, imp.Label()) {
			return imp, nil
		}
	}
	imp := valueobjects.ParseImportance(s)
	if !imp.IsValid() {
		return 0, fmt.Errorf("invalid importance %q: use 1-3 or low, medium, high", s)
	}
	return imp, nil
}

// parseStatus matches known statuses case-insensitively; anything else is
// passed through for validation to reject.
func parseStatus(s string) valueobjects.Status {
	for _, st := range valueobjects.Statuses {
		if strings.EqualFold(s, st.String()) {
			return st
		}
	}
	return valueobjects.Status(s)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeTable prints one idea per line. Terminals get a header and aligned
// columns, pipes get plain tab separated fields.
func writeTable(w io.Writer, ideas []*entities.Idea, aligned bool) error {
	if !aligned {
		for _, idea := range ideas {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				idea.ID, idea.Title, idea.Importance.Label(), idea.Status, idea.CreatedAt); err != nil {
				return err
			}
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tIMPORTANCE\tSTATUS\tCREATED")
	for _, idea := range ideas {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			idea.ID, idea.Title, idea.Importance.Label(), idea.Status, idea.CreatedAt)
	}
	return tw.Flush()
}

func writeDetail(w io.Writer, idea *entities.Idea) {
	fmt.Fprintf(w, "ID:          %s\n", idea.ID)
	fmt.Fprintf(w, "Title:       %s\n", idea.Title)
	fmt.Fprintf(w, "Description: %s\n", idea.Description)
	fmt.Fprintf(w, "Importance:  %s\n", idea.Importance.Label())
	fmt.Fprintf(w, "Status:      %s\n", idea.Status)
	fmt.Fprintf(w, "Color:       %s\n", idea.Color)
	fmt.Fprintf(w, "Created:     %s\n", idea.CreatedAt)
	if idea.Notes != "" {
		fmt.Fprintf(w, "Notes:\n%s\n", idea.Notes)
	}
}
