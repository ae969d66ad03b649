package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/pimcabanlit/firecrawl-cli/internal/utils"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds command-specific configuration defaults.
type ApplicationConfiguration struct {
	Server    ServerConfiguration  `mapstructure:"server"`
	Output    OutputConfiguration  `mapstructure:"output"`
	Scrape    ScrapeConfiguration  `mapstructure:"scrape"`
	Search    SearchConfiguration  `mapstructure:"search"`
	Extract   ExtractConfiguration `mapstructure:"extract"`
	Tokens    TokenConfiguration   `mapstructure:"tokens"`
	Clipboard *bool                `mapstructure:"clipboard"`
}

// ServerConfiguration describes how the server subprocess is launched.
type ServerConfiguration struct {
	Command    string   `mapstructure:"command"`
	Args       []string `mapstructure:"args"`
	Script     string   `mapstructure:"script"`
	Candidates []string `mapstructure:"candidates"`
	Env        []string `mapstructure:"env"`
}

// OutputConfiguration controls where results are written and how previews render.
type OutputConfiguration struct {
	Directory    string `mapstructure:"directory"`
	PreviewLimit *int   `mapstructure:"preview_limit"`
}

// ScrapeConfiguration defines defaults for the scrape operation.
type ScrapeConfiguration struct {
	Formats []string `mapstructure:"formats"`
	Save    *bool    `mapstructure:"save"`
}

// SearchConfiguration defines defaults for the search operation.
type SearchConfiguration struct {
	Limit *int `mapstructure:"limit"`
}

// ExtractConfiguration defines defaults for the extract operation.
type ExtractConfiguration struct {
	AllowExternalLinks *bool  `mapstructure:"allow_external_links"`
	EnableWebSearch    *bool  `mapstructure:"enable_web_search"`
	IncludeSubdomains  *bool  `mapstructure:"include_subdomains"`
	TableFormat        string `mapstructure:"table_format"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

// LoadApplicationConfiguration loads configuration from global and local files.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath, resolveErr := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return ApplicationConfiguration{}, resolveErr
	}
	if localPath != "" {
		localConfig, loadErr := loadConfigurationFromPath(localPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(localConfig)
	}

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolute, err := filepath.Abs(explicitPath)
			if err != nil {
				return "", fmt.Errorf("resolve configuration path %s: %w", explicitPath, err)
			}
			return absolute, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	return filepath.Join(workingDirectory, utils.ConfigFileName), nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	result.Server = result.Server.merge(override.Server)
	result.Output = result.Output.merge(override.Output)
	result.Scrape = result.Scrape.merge(override.Scrape)
	result.Search = result.Search.merge(override.Search)
	result.Extract = result.Extract.merge(override.Extract)
	result.Tokens = result.Tokens.merge(override.Tokens)
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	return result
}

func (config ServerConfiguration) merge(override ServerConfiguration) ServerConfiguration {
	result := config
	if override.Command != "" {
		result.Command = override.Command
	}
	if len(override.Args) > 0 {
		result.Args = append([]string{}, override.Args...)
	}
	if override.Script != "" {
		result.Script = override.Script
	}
	if len(override.Candidates) > 0 {
		result.Candidates = append([]string{}, override.Candidates...)
	}
	if len(override.Env) > 0 {
		result.Env = append([]string{}, override.Env...)
	}
	return result
}

func (config OutputConfiguration) merge(override OutputConfiguration) OutputConfiguration {
	result := config
	if override.Directory != "" {
		result.Directory = override.Directory
	}
	if override.PreviewLimit != nil {
		result.PreviewLimit = cloneInt(override.PreviewLimit)
	}
	return result
}

func (config ScrapeConfiguration) merge(override ScrapeConfiguration) ScrapeConfiguration {
	result := config
	if len(override.Formats) > 0 {
		result.Formats = append([]string{}, override.Formats...)
	}
	if override.Save != nil {
		result.Save = cloneBool(override.Save)
	}
	return result
}

func (config SearchConfiguration) merge(override SearchConfiguration) SearchConfiguration {
	result := config
	if override.Limit != nil {
		result.Limit = cloneInt(override.Limit)
	}
	return result
}

func (config ExtractConfiguration) merge(override ExtractConfiguration) ExtractConfiguration {
	result := config
	if override.AllowExternalLinks != nil {
		result.AllowExternalLinks = cloneBool(override.AllowExternalLinks)
	}
	if override.EnableWebSearch != nil {
		result.EnableWebSearch = cloneBool(override.EnableWebSearch)
	}
	if override.IncludeSubdomains != nil {
		result.IncludeSubdomains = cloneBool(override.IncludeSubdomains)
	}
	if override.TableFormat != "" {
		result.TableFormat = override.TableFormat
	}
	return result
}

func (config TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := config
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	return result
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
