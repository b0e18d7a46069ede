// internal/users/users_test.go
package users

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeInventory(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadInventory(t *testing.T) {
	path := writeInventory(t, `
users:
  - id: qa-1
    username: qa.one@example.com
    password: file-password
    roles: [researcher]
  - id: qa-2
    username: qa.two@example.com
    password: other-password
`)

	loaded, err := Load(path, "", zaptest.NewLogger(t))
	require.NoError(t, err)

	want := []User{
		{ID: "qa-1", Username: "qa.one@example.com", Password: "file-password", Roles: []string{"researcher"}},
		{ID: "qa-2", Username: "qa.two@example.com", Password: "other-password"},
	}
	if diff := cmp.Diff(want, loaded); diff != "" {
		t.Errorf("loaded inventory mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadEnvOverridesPassword(t *testing.T) {
	path := writeInventory(t, `
users:
  - id: qa-env
    username: qa.env@example.com
    password: placeholder
`)
	t.Setenv("LEXPROBE_USER_QA_ENV_PASSWORD", "from-env")

	loaded, err := Load(path, "", zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "from-env", loaded[0].Password)
}

func TestLoadEnvFile(t *testing.T) {
	path := writeInventory(t, `
users:
  - id: qa-dotenv
    username: qa.dotenv@example.com
`)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile,
		[]byte("LEXPROBE_USER_QA_DOTENV_PASSWORD=dotenv-password\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("LEXPROBE_USER_QA_DOTENV_PASSWORD") })

	loaded, err := Load(path, envFile, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "dotenv-password", loaded[0].Password)
}

func TestLoadRejectsMissingPassword(t *testing.T) {
	path := writeInventory(t, `
users:
  - id: qa-nopass
    username: qa.nopass@example.com
`)

	_, err := Load(path, "", zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LEXPROBE_USER_QA_NOPASS_PASSWORD")
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	path := writeInventory(t, `
users:
  - id: qa-dup
    username: a@example.com
    password: p
  - id: qa-dup
    username: b@example.com
    password: p
`)

	_, err := Load(path, "", zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate user id")
}

func TestLoadRejectsEmptyInventory(t *testing.T) {
	path := writeInventory(t, "users: []\n")
	_, err := Load(path, "", zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contains no users")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), "", zaptest.NewLogger(t))
	require.Error(t, err)
}
