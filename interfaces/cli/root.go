// Package cli implements ideactl, the operator command line for the idea
// store.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"ideatracker/domain/core/entities"
	"ideatracker/pkg/auth"
)

// IdeaService is the idea use case surface the commands drive.
type IdeaService interface {
	List(ctx context.Context, userID string, policy entities.SortPolicy) ([]*entities.Idea, error)
	Get(ctx context.Context, userID, ideaID string) (*entities.Idea, error)
	Create(ctx context.Context, userID string, buffer entities.Idea) (*entities.Idea, error)
	Update(ctx context.Context, userID, ideaID string, buffer entities.Idea) (*entities.Idea, error)
}

// Registrar creates accounts without signing anybody in.
type Registrar interface {
	Register(ctx context.Context, email, password string) (*auth.User, error)
}

// App holds references to all services used by CLI commands.
type App struct {
	Ideas IdeaService
	// Users is nil when accounts live with a hosted provider.
	Users Registrar
	// IsInteractive reports whether output goes to a terminal.
	IsInteractive func() bool
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// NewRootCmd creates the top-level "ideactl" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "ideactl",
		Short:         "Inspect and edit ideas in the configured store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newIdeasCmd(app),
		newUsersCmd(app),
	)

	return root
}
