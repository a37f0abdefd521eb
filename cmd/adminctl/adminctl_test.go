package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"admin-console/internal/admin/adapter/rest/resttest"
	"admin-console/internal/admin/domain/model"
	apperrors "admin-console/internal/shared/errors"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func seedUser(remote *resttest.Server) {
	remote.Seed(model.ResourceUser, map[string]interface{}{
		"_id": "u1", "firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com", "password": "engine123",
	})
}

func TestList_PrintsRecords(t *testing.T) {
	remote := resttest.NewServer(t)
	seedUser(remote)

	out, _, err := run(t, "", "list", "user", "--api-url", remote.URL)
	require.NoError(t, err)

	var users []model.User
	require.NoError(t, json.Unmarshal([]byte(out), &users))
	require.Len(t, users, 1)
	assert.Equal(t, "ada@example.com", users[0].Email)
}

func TestList_EmptyCollectionPrintsArray(t *testing.T) {
	remote := resttest.NewServer(t)

	out, _, err := run(t, "", "list", "page", "--api-url", remote.URL)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestList_UnknownResource(t *testing.T) {
	remote := resttest.NewServer(t)

	_, stderr, err := run(t, "", "list", "comment", "--api-url", remote.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnknownResource)
	assert.Contains(t, stderr, "unknown resource")
}

func TestAdd_CreatesRecord(t *testing.T) {
	remote := resttest.NewServer(t)

	out, _, err := run(t, "", "add", "page", "--api-url", remote.URL,
		"--set", "title=Home", "--set", "slug=home", "--set", "content=Welcome home")
	require.NoError(t, err)

	var page model.Page
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.NotEmpty(t, page.ID)
	assert.Equal(t, "home", page.Slug)
	assert.Equal(t, 1, remote.Count("POST", "/page"))
	assert.Len(t, remote.Records(model.ResourcePage), 1)
}

func TestAdd_InvalidDraftNeverReachesRemote(t *testing.T) {
	remote := resttest.NewServer(t)

	_, stderr, err := run(t, "", "add", "user", "--api-url", remote.URL,
		"--set", "firstName=Al", "--set", "email=not-an-email")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, stderr, "firstName: Enter at least 3 characters")
	assert.Contains(t, stderr, "email: Invalid email")
	assert.Contains(t, stderr, "password: Required")
	assert.Equal(t, 0, remote.Count("POST", "/user"))
}

func TestAdd_MalformedSet(t *testing.T) {
	remote := resttest.NewServer(t)

	_, _, err := run(t, "", "add", "user", "--api-url", remote.URL, "--set", "firstName")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestEdit_KeepsUnsetFields(t *testing.T) {
	remote := resttest.NewServer(t)
	seedUser(remote)

	out, _, err := run(t, "", "edit", "user", "u1", "--api-url", remote.URL, "--set", "lastName=Byron")
	require.NoError(t, err)

	var user model.User
	require.NoError(t, json.Unmarshal([]byte(out), &user))
	assert.Equal(t, "Byron", user.LastName)
	assert.Equal(t, "Ada", user.FirstName)
	assert.Equal(t, 1, remote.Count("PATCH", "/user/u1"))
}

func TestEdit_MissingRecord(t *testing.T) {
	remote := resttest.NewServer(t)

	_, stderr, err := run(t, "", "edit", "user", "u404", "--api-url", remote.URL, "--set", "lastName=Byron")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Contains(t, stderr, "user u404 not found")
	assert.Equal(t, 0, remote.Count("PATCH", "/user/u404"))
}

func TestDelete_WithYes(t *testing.T) {
	remote := resttest.NewServer(t)
	seedUser(remote)

	out, _, err := run(t, "", "delete", "user", "u1", "--yes", "--api-url", remote.URL)
	require.NoError(t, err)
	assert.Equal(t, "User deleted successfully\n", out)
	assert.Empty(t, remote.IDs(model.ResourceUser))
}

func TestDelete_PromptDeclined(t *testing.T) {
	remote := resttest.NewServer(t)
	seedUser(remote)

	out, stderr, err := run(t, "n\n", "delete", "user", "u1", "--api-url", remote.URL)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Delete user u1? [y/N]")
	assert.Equal(t, "Cancelled\n", out)
	assert.Equal(t, 0, remote.Count("DELETE", "/user/u1"))
	assert.Equal(t, []string{"u1"}, remote.IDs(model.ResourceUser))
}

func TestDelete_PromptAccepted(t *testing.T) {
	remote := resttest.NewServer(t)
	seedUser(remote)

	_, _, err := run(t, "y\n", "delete", "user", "u1", "--api-url", remote.URL)
	require.NoError(t, err)
	assert.Equal(t, 1, remote.Count("DELETE", "/user/u1"))
}

func TestDelete_RemoteFailureSurfacesMessage(t *testing.T) {
	remote := resttest.NewServer(t)
	seedUser(remote)
	remote.Fail("DELETE", "/user/u1", fiber.StatusInternalServerError, fiber.Map{"message": "database is read-only"})

	_, stderr, err := run(t, "", "delete", "user", "u1", "-y", "--api-url", remote.URL)
	require.Error(t, err)
	assert.Contains(t, stderr, "database is read-only")
	assert.Equal(t, []string{"u1"}, remote.IDs(model.ResourceUser))
}

func TestMissingAPIURL(t *testing.T) {
	t.Setenv("ADMIN_API_URL", "")

	_, _, err := run(t, "", "list", "user", "--api-url", "")
	assert.Error(t, err)
}

func TestWatch_RejectsNonWebSocketURL(t *testing.T) {
	_, stderr, err := run(t, "", "watch", "--server", "http://localhost:3000/ws/notifications")
	require.Error(t, err)
	assert.Contains(t, stderr, "scheme must be ws or wss")
}

func TestFormatNotification(t *testing.T) {
	n := model.Notification{
		Resource:  model.ResourceUser,
		Kind:      model.NotificationError,
		Operation: model.OperationDelete,
		RecordID:  "u2",
		Message:   "Network Error",
		Timestamp: time.Date(2024, 1, 2, 15, 4, 5, 0, time.Local),
	}
	assert.Equal(t, "15:04:05 [error] delete user u2: Network Error", formatNotification(n))

	n.RecordID = ""
	n.Operation = model.OperationFetch
	assert.Equal(t, "15:04:05 [error] fetch user: Network Error", formatNotification(n))
}
