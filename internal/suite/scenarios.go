// internal/suite/scenarios.go
package suite

import (
	"context"
	"fmt"

	"github.com/veyraqa/lexprobe/internal/pages"
)

// BuiltinScenarios returns the standing smoke flows against the portal, in
// run order: sign in first, content flows in the middle, sign out last.
func BuiltinScenarios() []Scenario {
	return []Scenario{
		{
			Name:      "Sign in",
			Order:     10,
			Tags:      []string{"smoke", "auth"},
			NeedsUser: true,
			Run:       runSignIn,
		},
		{
			Name:      "Home search",
			Order:     20,
			Tags:      []string{"smoke", "search"},
			NeedsUser: true,
			Run:       runHomeSearch,
		},
		{
			Name:      "Dashboard",
			Order:     30,
			Tags:      []string{"smoke", "dashboard"},
			NeedsUser: true,
			Run:       runDashboard,
		},
		{
			Name:      "Practice area browse",
			Order:     40,
			Tags:      []string{"content"},
			NeedsUser: true,
			Run:       runPracticeArea,
		},
		{
			Name:      "Sign out",
			Order:     50,
			Tags:      []string{"smoke", "auth"},
			NeedsUser: true,
			Retries:   -1, // a failed sign-out is not worth a retry loop
			Run:       runSignOut,
		},
	}
}

func runSignIn(ctx context.Context, env *Env) error {
	login := pages.NewLoginPage(env.Pages(), env.Cfg.Suite.BaseURL, env.Logger)

	if err := env.Step(ctx, "open sign-in page", login.Open); err != nil {
		return err
	}
	return env.Step(ctx, "submit credentials", func(ctx context.Context) error {
		return login.SignIn(ctx, env.User.Username, env.User.Password)
	})
}

func runHomeSearch(ctx context.Context, env *Env) error {
	if err := signInFirst(ctx, env); err != nil {
		return err
	}

	home := pages.NewHomePage(env.Pages(), env.Cfg.Suite.BaseURL, env.Logger)
	if err := env.Step(ctx, "open home page", home.Open); err != nil {
		return err
	}
	if err := env.Step(ctx, "validate home page", home.Validate); err != nil {
		return err
	}
	return env.Step(ctx, "run a search", func(ctx context.Context) error {
		return home.Search(ctx, "breach of contract")
	})
}

func runDashboard(ctx context.Context, env *Env) error {
	if err := signInFirst(ctx, env); err != nil {
		return err
	}

	dash := pages.NewDashboardPage(env.Pages(), env.Cfg.Suite.BaseURL, env.Logger)
	if err := env.Step(ctx, "open dashboard", dash.Open); err != nil {
		return err
	}
	if err := env.Step(ctx, "validate dashboard", dash.Validate); err != nil {
		return err
	}
	return env.Step(ctx, "check practice-area navigation", func(ctx context.Context) error {
		count, err := dash.PracticeAreaLinkCount(ctx)
		if err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("dashboard offers no practice-area links")
		}
		return nil
	})
}

func runPracticeArea(ctx context.Context, env *Env) error {
	if err := signInFirst(ctx, env); err != nil {
		return err
	}

	area := pages.NewPracticeAreaPage(env.Pages(), env.Cfg.Suite.BaseURL, env.Logger)
	const areaName = "Commercial Law"

	if err := env.Step(ctx, "open practice area", func(ctx context.Context) error {
		return area.Open(ctx, areaName)
	}); err != nil {
		return err
	}
	if err := env.Step(ctx, "validate heading", func(ctx context.Context) error {
		return area.ValidateHeading(ctx, areaName)
	}); err != nil {
		return err
	}
	return env.Step(ctx, "check document listing", func(ctx context.Context) error {
		return area.ValidateHasDocuments(ctx, 1)
	})
}

func runSignOut(ctx context.Context, env *Env) error {
	if err := signInFirst(ctx, env); err != nil {
		return err
	}

	login := pages.NewLoginPage(env.Pages(), env.Cfg.Suite.BaseURL, env.Logger)
	if err := env.Step(ctx, "sign out", login.SignOut); err != nil {
		return err
	}
	return env.Step(ctx, "confirm signed out", func(ctx context.Context) error {
		if login.SignedIn(ctx) {
			return fmt.Errorf("signed-in indicator still visible after sign out")
		}
		return nil
	})
}

// signInFirst authenticates the scenario's user. Sessions are fresh per
// attempt, so every scenario past the login check signs in on its own.
func signInFirst(ctx context.Context, env *Env) error {
	login := pages.NewLoginPage(env.Pages(), env.Cfg.Suite.BaseURL, env.Logger)
	if err := env.Step(ctx, "open sign-in page", login.Open); err != nil {
		return err
	}
	return env.Step(ctx, "sign in", func(ctx context.Context) error {
		return login.SignIn(ctx, env.User.Username, env.User.Password)
	})
}
