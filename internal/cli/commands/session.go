package commands

import (
	"ImageHub/internal/cli/api"
	fsrepo "ImageHub/internal/cli/repo/fs"
	"ImageHub/internal/config"
	"errors"
	"fmt"
	"net/http"
)

func tokenStore(cfg *config.Config) fsrepo.TokenFileStore {
	return fsrepo.TokenFileStore{Path: cfg.TokenFile}
}

// anonClient — клиент без токена (login).
func anonClient(cfg *config.Config) *api.Client {
	return api.NewClient(cfg.ServerURL, "")
}

// authedClient поднимает сохранённый токен; без него команда не выполняется.
func authedClient(cfg *config.Config) (*api.Client, error) {
	tok, err := tokenStore(cfg).Load()
	if errors.Is(err, fsrepo.ErrNoToken) {
		return nil, errors.New("not logged in, run: login <username> <password>")
	}
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	return api.NewClient(cfg.ServerURL, tok), nil
}

// explain переводит ответ сервера в сообщение для пользователя.
func explain(err error) error {
	switch api.StatusOf(err) {
	case http.StatusUnauthorized:
		return fmt.Errorf("session expired or invalid, please login again: %w", err)
	case http.StatusForbidden:
		return fmt.Errorf("permission denied: %w", err)
	default:
		return err
	}
}
