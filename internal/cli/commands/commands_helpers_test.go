package commands

import (
	"ImageHub/internal/config"
	"os"
	"path/filepath"
	"testing"
)

// withTempConfig возвращает конфиг клиента с файлом токена во временном каталоге.
func withTempConfig(t *testing.T, serverURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{ServerURL: serverURL, TokenFile: filepath.Join(dir, "ImageHub", "auth_token")}
}

// loggedIn кладёт токен в файл, как это делает login.
func loggedIn(t *testing.T, cfg *config.Config, tok string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(cfg.TokenFile), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg.TokenFile, []byte(tok), 0o600); err != nil {
		t.Fatal(err)
	}
}
