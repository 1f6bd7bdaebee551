package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ideatracker/application/commands"
	"ideatracker/application/commands/bus"
	cmdhandlers "ideatracker/application/commands/handlers"
	"ideatracker/application/queries"
	querybus "ideatracker/application/queries/bus"
	queryhandlers "ideatracker/application/queries/handlers"
	"ideatracker/application/services"
	"ideatracker/domain/core/valueobjects"
	"ideatracker/infrastructure/di"
	"ideatracker/infrastructure/messaging/eventbridge"
	"ideatracker/infrastructure/persistence/ideas"
	"ideatracker/infrastructure/persistence/memory"
	"ideatracker/pkg/auth"
	pkgerrors "ideatracker/pkg/errors"
	"ideatracker/pkg/observability"
)

// testApp wires a full App over the in-memory store.
func testApp(t *testing.T) *App {
	t.Helper()
	logger := zap.NewNop()
	store := memory.NewPathStore()
	repo := ideas.NewRepository(store, logger)
	cache := di.NewInMemoryCache()
	t.Cleanup(cache.Close)

	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	qb := querybus.NewQueryBus(querybus.CachingMiddleware(cache, time.Minute, observability.NopRecorder{}))
	require.NoError(t, qb.Register(queries.GetIdeaQuery{}, queryhandlers.NewGetIdeaHandler(repo, logger)))
	require.NoError(t, qb.Register(queries.ListIdeasQuery{}, queryhandlers.NewListIdeasHandler(repo, logger)))

	cb := bus.NewCommandBus()
	save := cmdhandlers.NewSaveIdeaHandler(repo, cache, eventbridge.NewLogPublisher(logger), valueobjects.NewIDGenerator(now), now, logger)
	require.NoError(t, cb.Register(commands.SaveIdeaCommand{}, save))

	tokens, err := auth.NewJWTService(auth.JWTConfig{SecretKey: "test-secret"})
	require.NoError(t, err)

	return &App{
		Ideas: services.NewIdeaService(cb, qb, logger),
		Users: auth.NewLocalProvider(store, tokens, nil, logger),
	}
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func addIdea(t *testing.T, app *App, title, importance string) string {
	t.Helper()
	out, err := executeCmd(t, app, "ideas", "add", "--user", "u1",
		"--title", title, "--description", title+" description", "--importance", importance)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "Created idea "), out)
	return strings.TrimSpace(strings.TrimPrefix(out, "Created idea "))
}

func TestIdeasAddAndList(t *testing.T) {
	app := testApp(t)
	addIdea(t, app, "Low one", "low")
	addIdea(t, app, "High one", "3")

	out, err := executeCmd(t, app, "ideas", "list", "--user", "u1")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "High one", "newest first")

	out, err = executeCmd(t, app, "ideas", "list", "--user", "u1", "--sort", "importance")
	require.NoError(t, err)
	fields := strings.Split(strings.Split(out, "\n")[0], "\t")
	assert.Equal(t, "High one", fields[1])
	assert.Equal(t, "High", fields[2])
}

func TestIdeasList_InteractiveHeader(t *testing.T) {
	app := testApp(t)
	app.IsInteractive = func() bool { return true }

	out, err := executeCmd(t, app, "ideas", "list", "--user", "u1")
	require.NoError(t, err)
	assert.Equal(t, "No ideas.\n", out)

	addIdea(t, app, "Build X", "2")
	out, err = executeCmd(t, app, "ideas", "list", "--user", "u1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "ID"), out)
	assert.Contains(t, out, "Medium")
}

func TestIdeasList_RejectsUnknownSort(t *testing.T) {
	app := testApp(t)
	_, err := executeCmd(t, app, "ideas", "list", "--user", "u1", "--sort", "title")
	assert.ErrorContains(t, err, "unknown sort")
}

func TestIdeasEdit_KeepsUnsetFields(t *testing.T) {
	app := testApp(t)
	id := addIdea(t, app, "Build X", "high")

	before, err := app.Ideas.Get(context.Background(), "u1", id)
	require.NoError(t, err)

	out, err := executeCmd(t, app, "ideas", "edit", id, "--user", "u1", "--status", "in progress")
	require.NoError(t, err)
	assert.Equal(t, "Updated idea "+id+"\n", out)

	after, err := app.Ideas.Get(context.Background(), "u1", id)
	require.NoError(t, err)
	assert.Equal(t, valueobjects.StatusInProgress, after.Status)
	assert.Equal(t, "Build X", after.Title)
	assert.Equal(t, valueobjects.ImportanceHigh, after.Importance)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)

	out, err = executeCmd(t, app, "ideas", "show", id, "--user", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "Status:      In Progress")
}

func TestIdeas_Errors(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "ideas", "show", "404", "--user", "u1")
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = executeCmd(t, app, "ideas", "add", "--user", "u1", "--title", "x", "--description", "y", "--importance", "9")
	assert.ErrorContains(t, err, "invalid importance")

	_, err = executeCmd(t, app, "ideas", "add", "--user", "u1", "--title", "x", "--description", "y", "--color", "blue")
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = executeCmd(t, app, "ideas", "list")
	assert.ErrorContains(t, err, "user")
}

func TestUsersAdd(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "users", "add", "--email", "Ada@Example.com", "--password", "secret123")
	require.NoError(t, err)
	assert.Contains(t, out, "(ada@example.com)")

	_, err = executeCmd(t, app, "users", "add", "--email", "ada@example.com", "--password", "secret123")
	assert.ErrorContains(t, err, "email already in use")

	app.Users = nil
	_, err = executeCmd(t, app, "users", "add", "--email", "b@example.com", "--password", "secret123")
	assert.ErrorContains(t, err, "hosted auth provider")
}
