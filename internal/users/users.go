// internal/users/users.go
package users

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// User is one portal account from the credential inventory.
type User struct {
	ID       string   `mapstructure:"id" json:"id"`
	Username string   `mapstructure:"username" json:"username"`
	Password string   `mapstructure:"password" json:"-"`
	Roles    []string `mapstructure:"roles" json:"roles,omitempty"`
}

// envPasswordKey is the environment override for a user's password:
// LEXPROBE_USER_<ID>_PASSWORD, with the ID uppercased and hyphens folded
// to underscores. Inventory files checked into the repo carry placeholder
// passwords; real ones arrive through the environment.
func envPasswordKey(id string) string {
	id = strings.ToUpper(strings.ReplaceAll(id, "-", "_"))
	return "LEXPROBE_USER_" + id + "_PASSWORD"
}

// Load reads the user inventory file (YAML, JSON, or TOML by extension) and
// applies environment password overrides. envFile, when non-empty, is loaded
// first via godotenv without clobbering already-set variables.
func Load(path, envFile string, logger *zap.Logger) ([]User, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read user inventory %s: %w", path, err)
	}

	var inventory struct {
		Users []User `mapstructure:"users"`
	}
	if err := v.Unmarshal(&inventory); err != nil {
		return nil, fmt.Errorf("failed to parse user inventory: %w", err)
	}
	if len(inventory.Users) == 0 {
		return nil, fmt.Errorf("user inventory %s contains no users", path)
	}

	seen := make(map[string]struct{}, len(inventory.Users))
	for i := range inventory.Users {
		u := &inventory.Users[i]
		if u.ID == "" || u.Username == "" {
			return nil, fmt.Errorf("user inventory entry %d is missing an id or username", i)
		}
		if _, dup := seen[u.ID]; dup {
			return nil, fmt.Errorf("duplicate user id %q in inventory", u.ID)
		}
		seen[u.ID] = struct{}{}

		if override := os.Getenv(envPasswordKey(u.ID)); override != "" {
			u.Password = override
			logger.Debug("Applied environment password override.", zap.String("user_id", u.ID))
		}
		if u.Password == "" {
			return nil, fmt.Errorf("user %q has no password (set %s or fill the inventory)", u.ID, envPasswordKey(u.ID))
		}
	}

	logger.Info("Loaded user inventory.", zap.String("path", path), zap.Int("users", len(inventory.Users)))
	return inventory.Users, nil
}
