// Package prefssvc persists lightweight presentation preferences, like the
// dark theme toggle, in a config file next to the app configuration.
package prefssvc

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const darkThemeKey = "darkTheme"

type Service struct {
	mu sync.Mutex
	v  *viper.Viper
}

func NewService(dir string) (*Service, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating prefs dir")
	}
	path := filepath.Join(dir, "prefs.yml")

	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault(darkThemeKey, false)

	// a missing file is fine; defaults apply until the first write
	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(errors.Cause(err)) {
		return nil, errors.Wrap(err, "reading prefs")
	}
	return &Service{v: v}, nil
}

func (svc *Service) DarkTheme() bool {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.v.GetBool(darkThemeKey)
}

func (svc *Service) SetDarkTheme(enabled bool) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	svc.v.Set(darkThemeKey, enabled)
	if err := svc.v.WriteConfig(); err != nil {
		return errors.Wrap(err, "writing prefs")
	}
	return nil
}
