// internal/pages/login.go
package pages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// LoginPage drives the portal's sign-in flow.
type LoginPage struct {
	*Base
	baseURL string
	logger  *zap.Logger
}

// Sign-in locator fallbacks. The portal has gone through at least three
// login-form redesigns; older selectors stay in the list until they stop
// appearing in production.
var (
	usernameFieldLocators = []Locator{
		CSS("#Username"),
		CSS("input[name='Username']"),
		CSS("#username"),
		CSS("input[name='username']"),
		CSS("input[type='email'][autocomplete='username']"),
		CSS("input[data-testid='username-input']"),
	}

	passwordFieldLocators = []Locator{
		CSS("#Password"),
		CSS("input[name='Password']"),
		CSS("#password"),
		CSS("input[name='password']"),
		CSS("input[type='password']"),
	}

	signInButtonLocators = []Locator{
		CSS("#SignIn"),
		CSS("button[type='submit']"),
		CSS("input[type='submit']"),
		CSS("button[data-testid='sign-in-submit']"),
		XPath("//button[contains(., 'Sign in')]"),
		XPath("//button[contains(., 'Sign In')]"),
	}

	loginErrorLocators = []Locator{
		CSS(".validation-summary-errors"),
		CSS(".field-validation-error"),
		CSS("[data-testid='login-error']"),
		CSS(".alert-danger"),
	}

	signedInIndicatorLocators = []Locator{
		CSS("[data-testid='user-menu']"),
		CSS(".user-profile-menu"),
		CSS("#userMenuButton"),
		CSS("a[href*='signoff']"),
		XPath("//button[contains(@aria-label, 'account')]"),
	}
)

// NewLoginPage creates the login page object.
func NewLoginPage(base *Base, baseURL string, logger *zap.Logger) *LoginPage {
	return &LoginPage{Base: base, baseURL: baseURL, logger: logger.Named("login_page")}
}

// Open navigates to the sign-in screen and clears any cookie banner.
func (p *LoginPage) Open(ctx context.Context) error {
	url := strings.TrimRight(p.baseURL, "/") + "/signin"
	if err := p.Driver().Navigate(ctx, url); err != nil {
		return fmt.Errorf("failed to open sign-in page: %w", err)
	}
	p.DismissCookieConsent(ctx)
	return nil
}

// SignIn fills the credentials and submits the form. It returns an error if
// the portal renders a login-failure message or the signed-in indicator never
// appears.
func (p *LoginPage) SignIn(ctx context.Context, username, password string) error {
	p.logger.Info("Signing in.", zap.String("username", username))

	if err := p.TypeAny(ctx, usernameFieldLocators, username); err != nil {
		return fmt.Errorf("could not enter username: %w", err)
	}
	if err := p.TypeAny(ctx, passwordFieldLocators, password); err != nil {
		return fmt.Errorf("could not enter password: %w", err)
	}
	if err := p.ClickAny(ctx, signInButtonLocators); err != nil {
		return fmt.Errorf("could not submit sign-in form: %w", err)
	}

	// Post-submit the portal either lands us in the app or re-renders the
	// form with an error block.
	if msg, failed := p.loginError(ctx); failed {
		return fmt.Errorf("sign-in rejected by portal: %s", msg)
	}

	if _, err := p.WaitAny(ctx, signedInIndicatorLocators); err != nil {
		return fmt.Errorf("signed-in state never appeared: %w", err)
	}
	p.logger.Info("Signed in.")
	return nil
}

// SignedIn reports whether the session currently shows a signed-in indicator.
func (p *LoginPage) SignedIn(ctx context.Context) bool {
	return p.AnyVisible(ctx, signedInIndicatorLocators)
}

// SignOut clicks through the account menu's sign-off entry.
func (p *LoginPage) SignOut(ctx context.Context) error {
	if err := p.ClickAny(ctx, signedInIndicatorLocators); err != nil {
		return fmt.Errorf("could not open account menu: %w", err)
	}
	signOff := []Locator{
		CSS("a[href*='signoff']"),
		CSS("[data-testid='sign-out']"),
		XPath("//a[contains(., 'Sign out')]"),
		XPath("//button[contains(., 'Sign out')]"),
	}
	if err := p.ClickAny(ctx, signOff); err != nil {
		return fmt.Errorf("could not click sign out: %w", err)
	}
	return nil
}

func (p *LoginPage) loginError(ctx context.Context) (string, bool) {
	for _, loc := range loginErrorLocators {
		if loc.By != ByCSS {
			continue
		}
		if !p.Driver().Visible(ctx, loc.Value, 2*time.Second) {
			continue
		}
		msg, err := p.Driver().Text(ctx, loc.Value)
		if err != nil || strings.TrimSpace(msg) == "" {
			msg = "unspecified sign-in error"
		}
		return strings.TrimSpace(msg), true
	}
	return "", false
}
