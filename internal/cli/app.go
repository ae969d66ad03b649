package cli

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/pimcabanlit/firecrawl-cli/internal/config"
	"github.com/pimcabanlit/firecrawl-cli/internal/firecrawl"
	"github.com/pimcabanlit/firecrawl-cli/internal/normalize"
	"github.com/pimcabanlit/firecrawl-cli/internal/output"
	"github.com/pimcabanlit/firecrawl-cli/internal/persist"
	"github.com/pimcabanlit/firecrawl-cli/internal/services/clipboard"
	"github.com/pimcabanlit/firecrawl-cli/internal/session"
	"github.com/pimcabanlit/firecrawl-cli/internal/tokenizer"
	"github.com/pimcabanlit/firecrawl-cli/internal/types"
)

// globalOptions carries the persistent flag values shared by every command.
type globalOptions struct {
	serverScript    string
	serverCommand   string
	outputDirectory string
	configFilePath  string
}

// operationDefaults holds the configuration-derived defaults applied when a
// caller does not specify operation parameters explicitly.
type operationDefaults struct {
	scrapeFormats      []string
	searchLimit        int
	allowExternalLinks bool
	enableWebSearch    bool
	includeSubdomains  bool
}

// operationRunner adapts the session manager and operation facade to the
// narrow interface the interactive shell consumes.
type operationRunner struct {
	manager  *session.Manager
	client   *firecrawl.Client
	defaults operationDefaults
}

func (runner *operationRunner) ListTools(ctx context.Context) ([]types.ToolDescriptor, error) {
	return runner.manager.ListTools(ctx)
}

func (runner *operationRunner) ListResources(ctx context.Context) ([]types.ResourceDescriptor, error) {
	return runner.manager.ListResources(ctx)
}

func (runner *operationRunner) Scrape(ctx context.Context, url string) (*normalize.Value, error) {
	return runner.client.Scrape(ctx, url, firecrawl.ScrapeOptions{Formats: runner.defaults.scrapeFormats})
}

func (runner *operationRunner) Crawl(ctx context.Context, url string) (*normalize.Value, error) {
	return runner.client.Crawl(ctx, url, firecrawl.CrawlOptions{})
}

func (runner *operationRunner) Search(ctx context.Context, query string) (*normalize.Value, error) {
	return runner.client.Search(ctx, query, firecrawl.SearchOptions{Limit: runner.defaults.searchLimit})
}

func (runner *operationRunner) Extract(ctx context.Context, urls []string, prompt string, systemPrompt string, schema map[string]any) (*normalize.Value, error) {
	return runner.client.Extract(ctx, urls, firecrawl.ExtractOptions{
		Prompt:             prompt,
		SystemPrompt:       systemPrompt,
		Schema:             schema,
		AllowExternalLinks: runner.defaults.allowExternalLinks,
		EnableWebSearch:    runner.defaults.enableWebSearch,
		IncludeSubdomains:  runner.defaults.includeSubdomains,
	})
}

// application bundles the configured collaborators for one command
// invocation. Connect must be called before any remote operation.
type application struct {
	configuration config.ApplicationConfiguration
	manager       *session.Manager
	runner        *operationRunner
	saver         *persist.Writer
	copier        clipboard.Copier
	logger        *zap.Logger
	previewLimit  int
}

func newApplication(globals *globalOptions, logger *zap.Logger) (*application, error) {
	configuration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{
		ExplicitFilePath: globals.configFilePath,
	})
	if configurationError != nil {
		return nil, configurationError
	}

	serverCommand := globals.serverCommand
	if serverCommand == "" {
		serverCommand = configuration.Server.Command
	}
	serverScript := globals.serverScript
	if serverScript == "" {
		serverScript = configuration.Server.Script
	}
	outputDirectory := globals.outputDirectory
	if outputDirectory == "" {
		outputDirectory = configuration.Output.Directory
	}
	if outputDirectory == "" {
		outputDirectory = types.DefaultOutputDirectory
	}
	previewLimit := output.DefaultItemPreviewLimit
	if configuration.Output.PreviewLimit != nil && *configuration.Output.PreviewLimit > 0 {
		previewLimit = *configuration.Output.PreviewLimit
	}

	manager := session.NewManager(session.Options{
		Command:              serverCommand,
		Args:                 configuration.Server.Args,
		Script:               serverScript,
		ScriptCandidates:     configuration.Server.Candidates,
		EnvironmentAllowList: configuration.Server.Env,
		Logger:               logger,
	})

	defaults := operationDefaults{
		scrapeFormats: configuration.Scrape.Formats,
		searchLimit:   defaultSearchLimit,
	}
	if len(defaults.scrapeFormats) == 0 {
		defaults.scrapeFormats = []string{defaultScrapeFormat}
	}
	if configuration.Search.Limit != nil && *configuration.Search.Limit > 0 {
		defaults.searchLimit = *configuration.Search.Limit
	}
	if configuration.Extract.AllowExternalLinks != nil {
		defaults.allowExternalLinks = *configuration.Extract.AllowExternalLinks
	}
	if configuration.Extract.EnableWebSearch != nil {
		defaults.enableWebSearch = *configuration.Extract.EnableWebSearch
	}
	if configuration.Extract.IncludeSubdomains != nil {
		defaults.includeSubdomains = *configuration.Extract.IncludeSubdomains
	}

	runner := &operationRunner{
		manager:  manager,
		defaults: defaults,
	}
	runner.client = firecrawl.NewClient(manager)

	return &application{
		configuration: configuration,
		manager:       manager,
		runner:        runner,
		saver:         persist.NewWriter(outputDirectory, logger),
		copier:        clipboard.NewService(),
		logger:        logger,
		previewLimit:  previewLimit,
	}, nil
}

func (app *application) connect(ctx context.Context) error {
	return app.manager.Connect(ctx)
}

func (app *application) close() {
	if closeErr := app.manager.Close(); closeErr != nil {
		app.logger.Warn("failed to close session", zap.Error(closeErr))
	}
}

// deliveryOptions describes what happens to a normalized result after the
// remote call succeeds.
type deliveryOptions struct {
	save          bool
	name          string
	copyEnabled   bool
	tokensEnabled bool
	tokenModel    string
	previewLimit  int
}

// deliver saves or previews the result and applies the clipboard and token
// counting extras. Save failures are fatal; extras only log.
func (app *application) deliver(result *normalize.Value, derivedName string, delivery deliveryOptions) error {
	if delivery.save {
		name := delivery.name
		if name == "" {
			name = derivedName
		}
		artifacts, saveErr := app.saver.SaveResult(result, name)
		if saveErr != nil {
			return saveErr
		}
		fmt.Printf(savedResultMessageFormat, artifacts.JSONPath)
		if artifacts.MarkdownPath != "" {
			fmt.Printf(savedMarkdownMessageFormat, artifacts.MarkdownPath)
		}
	} else {
		previewLimit := delivery.previewLimit
		if previewLimit <= 0 {
			previewLimit = app.previewLimit
		}
		if previewErr := output.RenderPreview(os.Stdout, result, previewLimit); previewErr != nil {
			return previewErr
		}
	}

	if delivery.copyEnabled {
		if copyErr := app.copyResult(result); copyErr != nil {
			app.logger.Warn("failed to copy result to clipboard", zap.Error(copyErr))
		}
	}
	if delivery.tokensEnabled {
		app.reportTokenCount(result, delivery.tokenModel)
	}
	return nil
}

func (app *application) copyResult(result *normalize.Value) error {
	payload, renderErr := output.PreviewText(result)
	if renderErr != nil {
		return renderErr
	}
	if copyErr := app.copier.Copy(payload); copyErr != nil {
		return copyErr
	}
	fmt.Println(copiedToClipboardMessage)
	return nil
}

func (app *application) reportTokenCount(result *normalize.Value, model string) {
	text, hasText := result.Text()
	if !hasText {
		fmt.Println(noTextForTokenCountMessage)
		return
	}
	counter, resolvedModel, counterErr := tokenizer.NewCounter(model)
	if counterErr != nil {
		app.logger.Warn("failed to build token counter", zap.Error(counterErr))
		return
	}
	count, countErr := counter.CountString(text)
	if countErr != nil {
		app.logger.Warn("failed to count tokens", zap.Error(countErr))
		return
	}
	fmt.Printf(tokenCountMessageFormat, resolvedModel, count)
}

// resolvedTableFormat picks the table format from the flag, configuration,
// then the CSV default.
func (app *application) resolvedTableFormat(flagValue string, flagChanged bool) string {
	if flagChanged && flagValue != "" {
		return flagValue
	}
	if app.configuration.Extract.TableFormat != "" {
		return app.configuration.Extract.TableFormat
	}
	return types.TableFormatCSV
}
