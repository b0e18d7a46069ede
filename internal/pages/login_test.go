// internal/pages/login_test.go
package pages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newLoginFixture(t *testing.T) (*LoginPage, *fakeDriver) {
	t.Helper()
	drv := newFakeDriver()
	base := newTestBase(t, drv)
	return NewLoginPage(base, "https://portal.example.com/", zaptest.NewLogger(t)), drv
}

func TestLoginOpenNavigatesToSignIn(t *testing.T) {
	page, drv := newLoginFixture(t)
	require.NoError(t, page.Open(context.Background()))
	assert.Equal(t, []string{"https://portal.example.com/signin"}, drv.navigated)
}

func TestSignInSuccess(t *testing.T) {
	page, drv := newLoginFixture(t)

	// Current-generation form markup plus a signed-in indicator that
	// appears after submit.
	drv.visible["#username"] = true
	drv.visible["input[type='password']"] = true
	drv.visible["button[type='submit']"] = true
	drv.visible["[data-testid='user-menu']"] = true

	err := page.SignIn(context.Background(), "qa.analyst", "s3cret")
	require.NoError(t, err)

	assert.Equal(t, "qa.analyst", drv.typed["#username"])
	assert.Equal(t, "s3cret", drv.typed["input[type='password']"])
	assert.Contains(t, drv.clicked, "button[type='submit']")
	assert.ElementsMatch(t, []string{"#username", "input[type='password']"}, drv.cleared)
}

func TestSignInRejectedByPortal(t *testing.T) {
	page, drv := newLoginFixture(t)

	drv.visible["#username"] = true
	drv.visible["input[type='password']"] = true
	drv.visible["button[type='submit']"] = true
	drv.visible[".validation-summary-errors"] = true
	drv.texts[".validation-summary-errors"] = "Invalid username or password."

	err := page.SignIn(context.Background(), "qa.analyst", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sign-in rejected by portal")
	assert.Contains(t, err.Error(), "Invalid username or password.")
}

func TestSignInFieldFallback(t *testing.T) {
	page, drv := newLoginFixture(t)

	// Only the oldest selector generation is present.
	drv.visible["#Username"] = true
	drv.visible["#Password"] = true
	drv.visible["#SignIn"] = true
	drv.visible["[data-testid='user-menu']"] = true

	require.NoError(t, page.SignIn(context.Background(), "u", "p"))
	assert.Equal(t, "u", drv.typed["#Username"])
	assert.Equal(t, "p", drv.typed["#Password"])
}

func TestSignedIn(t *testing.T) {
	page, drv := newLoginFixture(t)
	assert.False(t, page.SignedIn(context.Background()))

	drv.visible[".user-profile-menu"] = true
	assert.True(t, page.SignedIn(context.Background()))
}
