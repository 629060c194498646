// Package config содержит логику чтения конфигурации сервиса vales-contigo.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/mmeshcher/vales-contigo/internal/model"
)

const (
	defaultRunAddress = "localhost:8080"
	defaultStateDir   = "."
	defaultVariant    = string(model.VariantManage)
)

// ErrExpectedPINRequired возвращается, если для варианта locked не задан PIN.
var ErrExpectedPINRequired = errors.New("expected pin is required for the locked variant")

// Config содержит параметры конфигурации сервиса vales-contigo.
type Config struct {
	RunAddress    string `env:"RUN_ADDRESS"`
	StateDir      string `env:"STATE_DIR"`
	Variant       string `env:"VARIANT"`
	ExpectedPIN   string `env:"EXPECTED_PIN"`
	SessionSecret string `env:"SESSION_SECRET"`
	DatabaseURI   string `env:"DATABASE_URI"`
}

// PageVariant возвращает разобранный вариант страницы.
func (c *Config) PageVariant() model.Variant {
	v, _ := model.ParseVariant(c.Variant)
	return v
}

// Parse считывает конфигурацию из .env, флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fromEnv := *cfg

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.StateDir, "s", defaultStateDir, "directory for per-PIN state files")
	flag.StringVar(&cfg.Variant, "v", defaultVariant, "page variant: basic, manage or locked")
	flag.StringVar(&cfg.ExpectedPIN, "p", "", "fixed PIN for the locked variant")
	flag.StringVar(&cfg.SessionSecret, "k", "", "session cookie signing key")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI; state files are used when empty")

	flag.Parse()

	overrides := []struct {
		env string
		dst *string
	}{
		{fromEnv.RunAddress, &cfg.RunAddress},
		{fromEnv.StateDir, &cfg.StateDir},
		{fromEnv.Variant, &cfg.Variant},
		{fromEnv.ExpectedPIN, &cfg.ExpectedPIN},
		{fromEnv.SessionSecret, &cfg.SessionSecret},
		{fromEnv.DatabaseURI, &cfg.DatabaseURI},
	}
	for _, o := range overrides {
		if o.env != "" {
			*o.dst = o.env
		}
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.StateDir == "" {
		cfg.StateDir = defaultStateDir
	}
	if cfg.Variant == "" {
		cfg.Variant = defaultVariant
	}

	variant, ok := model.ParseVariant(cfg.Variant)
	if !ok {
		return nil, fmt.Errorf("unknown variant %q", cfg.Variant)
	}
	if variant.RequiresFixedPIN() && cfg.ExpectedPIN == "" {
		return nil, ErrExpectedPINRequired
	}

	return cfg, nil
}
