package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/llmflow/errors"
)

// FileSystem abstracts the file operations the loader needs so tests can
// substitute an in-memory layout.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
	UserConfigDir() (string, error)
}

// RealFileSystem implements FileSystem against the local disk.
type RealFileSystem struct{}

func (RealFileSystem) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// LoadEnv loads a .env file without overriding variables already set in
// the process environment.
func (RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

func (RealFileSystem) UserConfigDir() (string, error) {
	return os.UserConfigDir()
}

// Resolver finds the config.yml and .env files for an application.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles contains the resolved config and env file paths.
// An empty path means nothing was found.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles returns the explicit paths from opts when set, otherwise the
// first match from the standard search locations.
func (r *Resolver) ResolveFiles(appName string, opts LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{
		ConfigFile: opts.ConfigFile,
		EnvFile:    opts.EnvFile,
	}
	if resolved.ConfigFile == "" {
		resolved.ConfigFile = r.firstExisting(r.configCandidates(appName))
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = r.firstExisting(envCandidates(appName))
	}
	return resolved
}

// configCandidates lists config file locations in priority order:
// working directory, cmd/<app>, then the user config directory.
func (r *Resolver) configCandidates(appName string) []string {
	paths := []string{
		fmt.Sprintf("./%s.yml", appName),
		fmt.Sprintf("./%s.yaml", appName),
		"./config.yml",
		fmt.Sprintf("./cmd/%s/config.yml", appName),
		"./config/config.yml",
	}
	if dir, err := r.FileSystem.UserConfigDir(); err == nil && dir != "" {
		paths = append(paths,
			filepath.Join(dir, appName, "config.yml"),
			filepath.Join(dir, appName, "config.yaml"),
		)
	}
	return paths
}

func envCandidates(appName string) []string {
	return []string{
		fmt.Sprintf("./.env.%s", appName),
		"./.env",
		fmt.Sprintf("./cmd/%s/.env", appName),
		"./config/.env",
	}
}

func (r *Resolver) firstExisting(paths []string) string {
	for _, p := range paths {
		if r.FileSystem.Exists(p) {
			return p
		}
	}
	return ""
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string // explicit config file path (optional)
	EnvFile    string // explicit .env file path (optional)
	Defaults   map[string]any
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path. A missing explicit
// file is a configuration error, unlike a missing discovered one.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithDefault registers a default value for a dotted config key.
func WithDefault(key string, value any) LoaderOption {
	return func(lc *LoaderConfig) {
		if lc.Defaults == nil {
			lc.Defaults = make(map[string]any)
		}
		lc.Defaults[key] = value
	}
}

// LoadConfig loads configuration for appName into cfg.
//
// Precedence, lowest first: defaults, config.yml, .env, process environment.
// Environment variables are bound by name, so ANTHROPIC_API_KEY populates
// anthropic.api_key and LLM_MODEL populates llm.model.
func LoadConfig(appName string, cfg any, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = RealFileSystem{}
	}

	resolver := &Resolver{FileSystem: lc.FileSystem}
	files := resolver.ResolveFiles(appName, lc)

	if lc.ConfigFile != "" && !lc.FileSystem.Exists(lc.ConfigFile) {
		return errors.Configuration(fmt.Sprintf("config file not found: %s", lc.ConfigFile))
	}
	return loadFromResolvedFiles(appName, cfg, files, lc)
}

func loadFromResolvedFiles(appName string, cfg any, files ResolvedFiles, lc LoaderConfig) error {
	v := viper.New()
	for key, value := range lc.Defaults {
		v.SetDefault(key, value)
	}

	if files.ConfigFile != "" {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return errors.Configuration(fmt.Sprintf("failed to read config file %s", files.ConfigFile)).
				WithCause(err)
		}
	}

	// .env must be loaded before binding so its variables are visible.
	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			return errors.Configuration(fmt.Sprintf("failed to load env file %s", files.EnvFile)).
				WithCause(err)
		}
	}
	bindEnvironment(v, os.Environ())

	if err := v.Unmarshal(cfg); err != nil {
		return errors.Configuration(fmt.Sprintf("failed to decode configuration for %s", appName)).
			WithCause(err)
	}
	return nil
}

// bindEnvironment sets every KEY=value pair under each of its key variants.
func bindEnvironment(v *viper.Viper, environ []string) {
	for _, pair := range environ {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" || value == "" {
			continue
		}
		for _, variant := range envKeyVariants(key) {
			v.Set(variant, value)
		}
	}
}

// envKeyVariants returns the config keys an environment variable may map
// onto. Each underscore may be a section separator or part of a field name:
//
//	ANTHROPIC_API_KEY -> anthropic_api_key, anthropic.api.key,
//	                     anthropic.api_key, anthropic_api.key
func envKeyVariants(envKey string) []string {
	lower := strings.ToLower(envKey)
	parts := strings.Split(lower, "_")
	if len(parts) == 1 {
		return []string{lower}
	}

	variants := []string{lower, strings.Join(parts, ".")}
	for i := 1; i < len(parts); i++ {
		head := strings.Join(parts[:i], ".")
		tail := strings.Join(parts[i:], "_")
		variants = append(variants, head+"."+tail)

		head = strings.Join(parts[:i], "_")
		tail = strings.Join(parts[i:], ".")
		variants = append(variants, head+"."+tail)
	}
	return dedupe(variants)
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
