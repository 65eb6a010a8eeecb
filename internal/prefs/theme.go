// Package prefs stores visitor display preferences.
package prefs

import (
	"context"
	"fmt"
	"log"

	"portfolio-site/internal/kv"
)

const ThemeKey = "theme"

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func ParseTheme(raw string) (Theme, error) {
	switch Theme(raw) {
	case ThemeLight, ThemeDark:
		return Theme(raw), nil
	default:
		return "", fmt.Errorf("unknown theme %q", raw)
	}
}

type Themes struct {
	store kv.Store
}

func NewThemes(store kv.Store) *Themes {
	return &Themes{store: store}
}

// Current returns the stored theme. Missing or unreadable values fall back
// to light.
func (t *Themes) Current(ctx context.Context) Theme {
	raw, ok, err := t.store.Get(ctx, ThemeKey)
	if err != nil {
		log.Printf("read theme failed: %v", err)
		return ThemeLight
	}
	if !ok {
		return ThemeLight
	}
	theme, err := ParseTheme(raw)
	if err != nil {
		return ThemeLight
	}
	return theme
}

func (t *Themes) Set(ctx context.Context, theme Theme) error {
	if _, err := ParseTheme(string(theme)); err != nil {
		return err
	}
	if err := t.store.Set(ctx, ThemeKey, string(theme)); err != nil {
		return fmt.Errorf("save theme failed: %w", err)
	}
	return nil
}

func (t *Themes) Toggle(ctx context.Context) (Theme, error) {
	next := ThemeDark
	if t.Current(ctx) == ThemeDark {
		next = ThemeLight
	}
	if err := t.Set(ctx, next); err != nil {
		return "", err
	}
	return next, nil
}
