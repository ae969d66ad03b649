// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pimcabanlit/firecrawl-cli/internal/config"
	"github.com/pimcabanlit/firecrawl-cli/internal/firecrawl"
	"github.com/pimcabanlit/firecrawl-cli/internal/persist"
	"github.com/pimcabanlit/firecrawl-cli/internal/shell"
	"github.com/pimcabanlit/firecrawl-cli/internal/utils"
)

const (
	serverFlagName             = "server"
	serverCommandFlagName      = "server-command"
	outputDirFlagName          = "output-dir"
	configFlagName             = "config"
	debugFlagName              = "debug"
	interactiveFlagName        = "interactive"
	versionFlagName            = "version"
	saveFlagName               = "save"
	nameFlagName               = "name"
	formatsFlagName            = "formats"
	limitFlagName              = "limit"
	promptFlagName             = "prompt"
	systemPromptFlagName       = "system-prompt"
	schemaFlagName             = "schema"
	allowExternalLinksFlagName = "allow-external-links"
	enableWebSearchFlagName    = "enable-web-search"
	includeSubdomainsFlagName  = "include-subdomains"
	tableFlagName              = "table"
	tableFormatFlagName        = "table-format"
	copyFlagName               = "copy"
	tokensFlagName             = "tokens"
	modelFlagName              = "model"
	previewLimitFlagName       = "preview-limit"
	globalFlagName             = "global"
	forceFlagName              = "force"

	versionTemplate      = "firecrawl version: %s\n"
	rootUse              = "firecrawl"
	rootShortDescription = "firecrawl MCP client"
	rootLongDescription  = `firecrawl drives a Firecrawl MCP server over a stdio subprocess.
Running with no arguments performs the scripted demo sequence. Use --interactive
for the menu shell, --debug for the diagnostic sequence, and --version to print
the application version.`

	scrapeUse    = "scrape <url>"
	crawlUse     = "crawl <url>"
	searchUse    = "search <query>"
	extractUse   = "extract <url>..."
	toolsUse     = "tools"
	resourcesUse = "resources"
	shellUse     = "shell"
	demoUse      = "demo"
	debugUse     = "debug"
	configUse    = "config"
	initUse      = "init"

	scrapeShortDescription    = "scrape a single page"
	crawlShortDescription     = "crawl a site"
	searchShortDescription    = "run a web search"
	extractShortDescription   = "extract structured data from pages"
	toolsShortDescription     = "list tools advertised by the server"
	resourcesShortDescription = "list resources advertised by the server"
	shellShortDescription     = "launch the interactive menu"
	demoShortDescription      = "run the scripted demo sequence"
	debugShortDescription     = "run the diagnostic sequence"
	configShortDescription    = "manage configuration"
	initShortDescription      = "write a default configuration file"

	scrapeUsageExample = `  # Scrape a page and preview the result
  firecrawl scrape https://example.com

  # Scrape markdown and HTML, saving under output/docs_page
  firecrawl scrape https://example.com --formats markdown,html --save --name docs_page`
	extractUsageExample = `  # Extract with an inline schema
  firecrawl extract https://example.com --prompt "List the products" --schema '{"type":"object"}'

  # Extract with a schema file and spreadsheet export
  firecrawl extract https://example.com --prompt "List the products" --schema @schema.json --table --table-format xlsx`

	versionFlagDescription            = "display application version"
	serverFlagDescription             = "path to the MCP server script"
	serverCommandFlagDescription      = "command used to launch the server script"
	outputDirFlagDescription          = "directory receiving saved artifacts"
	configFlagDescription             = "configuration file path"
	debugFlagDescription              = "run the diagnostic sequence"
	interactiveFlagDescription        = "launch the interactive menu"
	saveFlagDescription               = "save the result to disk instead of previewing"
	nameFlagDescription               = "artifact base name (default derived from the input)"
	formatsFlagDescription            = "content formats to request"
	limitFlagDescription              = "maximum number of search results"
	promptFlagDescription             = "extraction prompt"
	systemPromptFlagDescription       = "system prompt for extraction"
	schemaFlagDescription             = "extraction JSON schema, inline or @file"
	allowExternalLinksFlagDescription = "follow links outside the given URLs"
	enableWebSearchFlagDescription    = "augment extraction with web search"
	includeSubdomainsFlagDescription  = "include subdomains of the given URLs"
	tableFlagDescription              = "also export the content rows as a table"
	tableFormatFlagDescription        = "table format: csv or xlsx"
	copyFlagDescription               = "copy the result preview to the clipboard"
	tokensFlagDescription             = "report the token count of the text reduction"
	modelFlagDescription              = "tokenizer model to use for token counting"
	previewLimitFlagDescription       = "preview truncation limit per content item"
	globalFlagDescription             = "write the global configuration file"
	forceFlagDescription              = "overwrite an existing configuration file"

	defaultScrapeFormat = "markdown"
	defaultSearchLimit  = 5

	savedResultMessageFormat    = "Saved result to %s\n"
	savedMarkdownMessageFormat  = "Saved markdown to %s\n"
	savedTableMessageFormat     = "Saved table to %s\n"
	copiedToClipboardMessage    = "Copied result to clipboard"
	noTextForTokenCountMessage  = "No text content to count tokens for"
	tokenCountMessageFormat     = "Token count (%s): %d\n"
	toolListingHeaderFormat     = "Available tools (%d):\n"
	toolListingEntryFormat      = "  - %s: %s\n"
	resourceListingHeaderFormat = "Available resources (%d):\n"
	resourceListingEntryFormat  = "  - %s: %s\n"
	configWrittenMessageFormat  = "Wrote configuration to %s\n"
)

// Execute runs the firecrawl application.
func Execute(logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	rootCommand := createRootCommand(logger)
	return rootCommand.ExecuteContext(ctx)
}

// createRootCommand builds the root Cobra command.
func createRootCommand(logger *zap.Logger) *cobra.Command {
	var showVersion bool
	var debugEnabled bool
	var interactiveEnabled bool
	globals := &globalOptions{}

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			if interactiveEnabled {
				return runShell(command.Context(), globals, logger)
			}
			if debugEnabled {
				return withConnectedApplication(command.Context(), globals, logger, runDebugSequence)
			}
			return withConnectedApplication(command.Context(), globals, logger, runDemoSequence)
		},
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if showVersion {
				fmt.Printf(versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
		},
	}
	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.PersistentFlags().StringVar(&globals.serverScript, serverFlagName, "", serverFlagDescription)
	rootCommand.PersistentFlags().StringVar(&globals.serverCommand, serverCommandFlagName, "", serverCommandFlagDescription)
	rootCommand.PersistentFlags().StringVar(&globals.outputDirectory, outputDirFlagName, "", outputDirFlagDescription)
	rootCommand.PersistentFlags().StringVar(&globals.configFilePath, configFlagName, "", configFlagDescription)
	rootCommand.Flags().BoolVar(&debugEnabled, debugFlagName, false, debugFlagDescription)
	rootCommand.Flags().BoolVar(&interactiveEnabled, interactiveFlagName, false, interactiveFlagDescription)
	rootCommand.AddCommand(
		createScrapeCommand(globals, logger),
		createCrawlCommand(globals, logger),
		createSearchCommand(globals, logger),
		createExtractCommand(globals, logger),
		createToolsCommand(globals, logger),
		createResourcesCommand(globals, logger),
		createShellCommand(globals, logger),
		createDemoCommand(globals, logger),
		createDebugCommand(globals, logger),
		createConfigCommand(),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// withConnectedApplication wires the application, opens the session, and
// guarantees the subprocess is torn down after the action completes.
func withConnectedApplication(ctx context.Context, globals *globalOptions, logger *zap.Logger, action func(context.Context, *application) error) error {
	app, applicationError := newApplication(globals, logger)
	if applicationError != nil {
		return applicationError
	}
	if connectError := app.connect(ctx); connectError != nil {
		return connectError
	}
	defer app.close()
	return action(ctx, app)
}

// deliveryFlags collects the flags shared by every operation command.
type deliveryFlags struct {
	save          bool
	name          string
	copyEnabled   bool
	tokensEnabled bool
	tokenModel    string
	previewLimit  int
}

func addDeliveryFlags(command *cobra.Command, flags *deliveryFlags) {
	registerBooleanFlag(command.Flags(), &flags.save, saveFlagName, false, saveFlagDescription)
	command.Flags().StringVar(&flags.name, nameFlagName, "", nameFlagDescription)
	registerBooleanFlag(command.Flags(), &flags.copyEnabled, copyFlagName, false, copyFlagDescription)
	registerBooleanFlag(command.Flags(), &flags.tokensEnabled, tokensFlagName, false, tokensFlagDescription)
	command.Flags().StringVar(&flags.tokenModel, modelFlagName, "", modelFlagDescription)
	command.Flags().IntVar(&flags.previewLimit, previewLimitFlagName, 0, previewLimitFlagDescription)
}

// resolveBooleanOption prefers an explicitly set flag, then the configured
// value, then the flag default.
func resolveBooleanOption(command *cobra.Command, flagName string, flagValue bool, configured *bool) bool {
	if command.Flags().Changed(flagName) {
		return flagValue
	}
	if configured != nil {
		return *configured
	}
	return flagValue
}

// deliveryFromFlags resolves the delivery options against configuration
// defaults. configuredSave may be nil for operations without a save default.
func (app *application) deliveryFromFlags(command *cobra.Command, flags *deliveryFlags, configuredSave *bool) deliveryOptions {
	tokenModel := flags.tokenModel
	if tokenModel == "" {
		tokenModel = app.configuration.Tokens.Model
	}
	return deliveryOptions{
		save:          resolveBooleanOption(command, saveFlagName, flags.save, configuredSave),
		name:          flags.name,
		copyEnabled:   resolveBooleanOption(command, copyFlagName, flags.copyEnabled, app.configuration.Clipboard),
		tokensEnabled: resolveBooleanOption(command, tokensFlagName, flags.tokensEnabled, app.configuration.Tokens.Enabled),
		tokenModel:    tokenModel,
		previewLimit:  flags.previewLimit,
	}
}

// createScrapeCommand returns the scrape subcommand.
func createScrapeCommand(globals *globalOptions, logger *zap.Logger) *cobra.Command {
	var delivery deliveryFlags
	var formats []string

	scrapeCommand := &cobra.Command{
		Use:     scrapeUse,
		Short:   scrapeShortDescription,
		Example: scrapeUsageExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			targetURL := arguments[0]
			return withConnectedApplication(command.Context(), globals, logger, func(ctx context.Context, app *application) error {
				scrapeFormats := formats
				if !command.Flags().Changed(formatsFlagName) {
					scrapeFormats = app.runner.defaults.scrapeFormats
				}
				result, scrapeError := app.runner.client.Scrape(ctx, targetURL, firecrawl.ScrapeOptions{Formats: scrapeFormats})
				if scrapeError != nil {
					return scrapeError
				}
				return app.deliver(result, persist.NameForScrape(targetURL), app.deliveryFromFlags(command, &delivery, app.configuration.Scrape.Save))
			})
		},
	}
	addDeliveryFlags(scrapeCommand, &delivery)
	scrapeCommand.Flags().StringSliceVar(&formats, formatsFlagName, []string{defaultScrapeFormat}, formatsFlagDescription)
	return scrapeCommand
}

// createCrawlCommand returns the crawl subcommand.
func createCrawlCommand(globals *globalOptions, logger *zap.Logger) *cobra.Command {
	var delivery deliveryFlags

	crawlCommand := &cobra.Command{
		Use:   crawlUse,
		Short: crawlShortDescription,
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			targetURL := arguments[0]
			return withConnectedApplication(command.Context(), globals, logger, func(ctx context.Context, app *application) error {
				result, crawlError := app.runner.client.Crawl(ctx, targetURL, firecrawl.CrawlOptions{})
				if crawlError != nil {
					return crawlError
				}
				return app.deliver(result, persist.NameForCrawl(targetURL), app.deliveryFromFlags(command, &delivery, nil))
			})
		},
	}
	addDeliveryFlags(crawlCommand, &delivery)
	return crawlCommand
}

// createSearchCommand returns the search subcommand.
func createSearchCommand(globals *globalOptions, logger *zap.Logger) *cobra.Command {
	var delivery deliveryFlags
	var resultLimit int

	searchCommand := &cobra.Command{
		Use:   searchUse,
		Short: searchShortDescription,
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			query := arguments[0]
			return withConnectedApplication(command.Context(), globals, logger, func(ctx context.Context, app *application) error {
				limit := resultLimit
				if !command.Flags().Changed(limitFlagName) {
					limit = app.runner.defaults.searchLimit
				}
				result, searchError := app.runner.client.Search(ctx, query, firecrawl.SearchOptions{Limit: limit})
				if searchError != nil {
					return searchError
				}
				return app.deliver(result, persist.NameForSearch(query), app.deliveryFromFlags(command, &delivery, nil))
			})
		},
	}
	addDeliveryFlags(searchCommand, &delivery)
	searchCommand.Flags().IntVar(&resultLimit, limitFlagName, defaultSearchLimit, limitFlagDescription)
	return searchCommand
}

// createExtractCommand returns the extract subcommand.
func createExtractCommand(globals *globalOptions, logger *zap.Logger) *cobra.Command {
	var delivery deliveryFlags
	var extractPrompt string
	var systemPrompt string
	var schemaArgument string
	var allowExternalLinks bool
	var enableWebSearch bool
	var includeSubdomains bool
	var tableEnabled bool
	var tableFormat string

	extractCommand := &cobra.Command{
		Use:     extractUse,
		Short:   extractShortDescription,
		Example: extractUsageExample,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			schema, schemaError := parseSchemaArgument(schemaArgument)
			if schemaError != nil {
				return schemaError
			}
			return withConnectedApplication(command.Context(), globals, logger, func(ctx context.Context, app *application) error {
				options := firecrawl.ExtractOptions{
					Prompt:             extractPrompt,
					SystemPrompt:       systemPrompt,
					Schema:             schema,
					AllowExternalLinks: resolveBooleanOption(command, allowExternalLinksFlagName, allowExternalLinks, app.configuration.Extract.AllowExternalLinks),
					EnableWebSearch:    resolveBooleanOption(command, enableWebSearchFlagName, enableWebSearch, app.configuration.Extract.EnableWebSearch),
					IncludeSubdomains:  resolveBooleanOption(command, includeSubdomainsFlagName, includeSubdomains, app.configuration.Extract.IncludeSubdomains),
				}
				result, extractError := app.runner.client.Extract(ctx, arguments, options)
				if extractError != nil {
					return extractError
				}
				derivedName := persist.NameForExtract(time.Now())
				resolvedDelivery := app.deliveryFromFlags(command, &delivery, nil)
				if deliverError := app.deliver(result, derivedName, resolvedDelivery); deliverError != nil {
					return deliverError
				}
				if tableEnabled {
					tableName := resolvedDelivery.name
					if tableName == "" {
						tableName = derivedName
					}
					format := app.resolvedTableFormat(tableFormat, command.Flags().Changed(tableFormatFlagName))
					tablePath, tableError := app.saver.SaveTable(result, tableName, format)
					if tableError != nil {
						return tableError
					}
					fmt.Printf(savedTableMessageFormat, tablePath)
				}
				return nil
			})
		},
	}
	addDeliveryFlags(extractCommand, &delivery)
	extractCommand.Flags().StringVar(&extractPrompt, promptFlagName, "", promptFlagDescription)
	extractCommand.Flags().StringVar(&systemPrompt, systemPromptFlagName, "", systemPromptFlagDescription)
	extractCommand.Flags().StringVar(&schemaArgument, schemaFlagName, "", schemaFlagDescription)
	registerBooleanFlag(extractCommand.Flags(), &allowExternalLinks, allowExternalLinksFlagName, false, allowExternalLinksFlagDescription)
	registerBooleanFlag(extractCommand.Flags(), &enableWebSearch, enableWebSearchFlagName, false, enableWebSearchFlagDescription)
	registerBooleanFlag(extractCommand.Flags(), &includeSubdomains, includeSubdomainsFlagName, false, includeSubdomainsFlagDescription)
	registerBooleanFlag(extractCommand.Flags(), &tableEnabled, tableFlagName, false, tableFlagDescription)
	extractCommand.Flags().StringVar(&tableFormat, tableFormatFlagName, "", tableFormatFlagDescription)
	_ = extractCommand.MarkFlagRequired(promptFlagName)
	return extractCommand
}

// createToolsCommand returns the tools subcommand.
func createToolsCommand(globals *globalOptions, logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   toolsUse,
		Short: toolsShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			return withConnectedApplication(command.Context(), globals, logger, func(ctx context.Context, app *application) error {
				tools, listError := app.runner.ListTools(ctx)
				if listError != nil {
					return listError
				}
				fmt.Printf(toolListingHeaderFormat, len(tools))
				for _, tool := range tools {
					fmt.Printf(toolListingEntryFormat, tool.Name, tool.Description)
				}
				return nil
			})
		},
	}
}

// createResourcesCommand returns the resources subcommand.
func createResourcesCommand(globals *globalOptions, logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   resourcesUse,
		Short: resourcesShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			return withConnectedApplication(command.Context(), globals, logger, func(ctx context.Context, app *application) error {
				resources, listError := app.runner.ListResources(ctx)
				if listError != nil {
					return listError
				}
				fmt.Printf(resourceListingHeaderFormat, len(resources))
				for _, resource := range resources {
					fmt.Printf(resourceListingEntryFormat, resource.URI, resource.Name)
				}
				return nil
			})
		},
	}
}

// createShellCommand returns the shell subcommand.
func createShellCommand(globals *globalOptions, logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   shellUse,
		Short: shellShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			return runShell(command.Context(), globals, logger)
		},
	}
}

func runShell(ctx context.Context, globals *globalOptions, logger *zap.Logger) error {
	return withConnectedApplication(ctx, globals, logger, func(shellCtx context.Context, app *application) error {
		menu := shell.New(shell.Options{
			Operations:   app.runner,
			Saver:        app.saver,
			Input:        os.Stdin,
			Output:       os.Stdout,
			Logger:       logger,
			PreviewLimit: app.previewLimit,
		})
		return menu.Run(shellCtx)
	})
}

// createDemoCommand returns the demo subcommand.
func createDemoCommand(globals *globalOptions, logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   demoUse,
		Short: demoShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			return withConnectedApplication(command.Context(), globals, logger, runDemoSequence)
		},
	}
}

// createDebugCommand returns the debug subcommand.
func createDebugCommand(globals *globalOptions, logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   debugUse,
		Short: debugShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			return withConnectedApplication(command.Context(), globals, logger, runDebugSequence)
		},
	}
}

// createConfigCommand returns the config subcommand tree.
func createConfigCommand() *cobra.Command {
	configCommand := &cobra.Command{
		Use:   configUse,
		Short: configShortDescription,
	}

	var writeGlobal bool
	var forceOverwrite bool
	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if writeGlobal {
				target = config.InitTargetGlobal
			}
			writtenPath, initError := config.InitializeConfiguration(config.InitOptions{
				Target: target,
				Force:  forceOverwrite,
			})
			if initError != nil {
				return initError
			}
			fmt.Printf(configWrittenMessageFormat, writtenPath)
			return nil
		},
	}
	registerBooleanFlag(initCommand.Flags(), &writeGlobal, globalFlagName, false, globalFlagDescription)
	registerBooleanFlag(initCommand.Flags(), &forceOverwrite, forceFlagName, false, forceFlagDescription)
	configCommand.AddCommand(initCommand)
	return configCommand
}
