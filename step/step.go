package step

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bitrise-io/go-steputils/v2/stepconf"
	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/kballard/go-shellquote"

	"github.com/guidewright/e2e-testing-guide/cache"
	"github.com/guidewright/e2e-testing-guide/fileremover"
	"github.com/guidewright/e2e-testing-guide/guide"
	"github.com/guidewright/e2e-testing-guide/linkcheck"
	"github.com/guidewright/e2e-testing-guide/models"
	"github.com/guidewright/e2e-testing-guide/nodecommand"
	"github.com/guidewright/e2e-testing-guide/output"
	"github.com/guidewright/e2e-testing-guide/report"
	"github.com/guidewright/e2e-testing-guide/snippetcheck"
	"github.com/guidewright/e2e-testing-guide/surface"
)

const toolVersion = "1.0.0"

// Check selection ...
const (
	checkAll      = "all"
	checkLinks    = "links"
	checkSnippets = "snippets"
	checkSurface  = "surface"
)

// Node check modes ...
const (
	nodeCheckModeAuto    = "auto"
	nodeCheckModeNode    = "node"
	nodeCheckModeBuiltin = "builtin"
)

const (
	failLevelError   = "error"
	failLevelWarning = "warning"
)

const (
	reportFormatAll     = "all"
	reportFormatConsole = "console"
	reportFormatHTML    = "html"
	reportFormatJSON    = "json"
)

const cacheLevelLinkResults = "link_results"

// Input ...
type Input struct {
	// Guide Parameters
	DocDir string `env:"doc_dir,required"`
	Checks string `env:"checks,opt[all,links,snippets,surface]"`

	// Link Check Configs
	ExternalLinks      bool `env:"external_links,opt[yes,no]"`
	LinkTimeoutSec     int  `env:"link_timeout_sec,required"`
	ParallelLinkChecks int  `env:"parallel_link_checks,required"`

	// Snippet Check Configs
	SnippetLanguages string `env:"snippet_languages"`
	NodeCheckMode    string `env:"node_check_mode,opt[auto,node,builtin]"`
	NodeOptions      string `env:"node_options"`

	// Surface Check Configs
	SurfaceFile string `env:"surface_file"`

	// Result Configs
	FailLevel     string `env:"fail_level,opt[error,warning]"`
	ReportFormats string `env:"report_formats,opt[all,console,html,json]"`

	// Debug
	Verbose bool `env:"verbose,opt[yes,no]"`

	// Output export
	DeployDir string `env:"BITRISE_DEPLOY_DIR"`

	CacheLevel string `env:"cache_level,opt[none,link_results]"`
}

// Config ...
type Config struct {
	DocDir string

	RunLinkCheck    bool
	RunSnippetCheck bool
	RunSurfaceCheck bool

	CheckExternalLinks bool
	LinkTimeout        time.Duration
	ParallelLinkChecks int

	SnippetLanguages []string
	NodeCheckMode    string
	NodeOptions      []string

	SurfaceRegistry *surface.Registry

	FailLevel string

	ReportConsole bool
	ReportHTML    bool
	ReportJSON    bool

	DeployDir string

	CacheLevel string
}

// GuideCheckRunner ...
type GuideCheckRunner struct {
	inputParser    stepconf.InputParser
	logger         log.Logger
	guideLoader    guide.Loader
	nodeChecker    nodecommand.DependencyChecker
	snippetRunner  *nodecommand.FallbackRunner
	builtinRunner  nodecommand.Runner
	scriptWriter   nodecommand.ScriptWriter
	outputExporter output.Exporter
	pathChecker    pathutil.PathChecker
	pathModifier   pathutil.PathModifier
	fileManager    fileutil.FileManager
	fileRemover    fileremover.FileRemover
}

// NewGuideCheckRunner ...
func NewGuideCheckRunner(inputParser stepconf.InputParser, logger log.Logger, guideLoader guide.Loader, nodeChecker nodecommand.DependencyChecker, snippetRunner *nodecommand.FallbackRunner, builtinRunner nodecommand.Runner, scriptWriter nodecommand.ScriptWriter, outputExporter output.Exporter, pathChecker pathutil.PathChecker, pathModifier pathutil.PathModifier, fileManager fileutil.FileManager, fileRemover fileremover.FileRemover) GuideCheckRunner {
	return GuideCheckRunner{
		inputParser:    inputParser,
		logger:         logger,
		guideLoader:    guideLoader,
		nodeChecker:    nodeChecker,
		snippetRunner:  snippetRunner,
		builtinRunner:  builtinRunner,
		scriptWriter:   scriptWriter,
		outputExporter: outputExporter,
		pathChecker:    pathChecker,
		pathModifier:   pathModifier,
		fileManager:    fileManager,
		fileRemover:    fileRemover,
	}
}

// ProcessConfig ...
func (s GuideCheckRunner) ProcessConfig() (Config, error) {
	var input Input
	err := s.inputParser.Parse(&input)
	if err != nil {
		return Config{}, err
	}

	stepconf.Print(input)
	s.logger.Println()

	s.logger.EnableDebugLog(input.Verbose)

	// validate guide directory
	docDir, err := s.pathModifier.AbsPath(input.DocDir)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute guide directory path, error: %s", err)
	}
	if exists, err := s.pathChecker.IsDirExists(docDir); err != nil {
		return Config{}, fmt.Errorf("failed to check guide directory (%s), error: %s", docDir, err)
	} else if !exists {
		return Config{}, fmt.Errorf("guide directory does not exist: %s", docDir)
	}

	if input.LinkTimeoutSec < 1 {
		return Config{}, fmt.Errorf("invalid Link Timeout (link_timeout_sec): %d, should be at least 1", input.LinkTimeoutSec)
	}

	if input.ParallelLinkChecks < 0 {
		return Config{}, fmt.Errorf("invalid number of Parallel Link Checks (parallel_link_checks): %d, should not be negative", input.ParallelLinkChecks)
	}

	nodeOptions, err := shellquote.Split(input.NodeOptions)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse Node Options (node_options): %s", err)
	}

	runLinkCheck := input.Checks == checkAll || input.Checks == checkLinks
	runSnippetCheck := input.Checks == checkAll || input.Checks == checkSnippets
	runSurfaceCheck := input.Checks == checkAll || input.Checks == checkSurface

	var registry *surface.Registry
	if runSurfaceCheck {
		registry, err = s.loadSurfaceRegistry(input.SurfaceFile)
		if err != nil {
			return Config{}, err
		}
	}

	return Config{
		DocDir: docDir,

		RunLinkCheck:    runLinkCheck,
		RunSnippetCheck: runSnippetCheck,
		RunSurfaceCheck: runSurfaceCheck,

		CheckExternalLinks: input.ExternalLinks,
		LinkTimeout:        time.Duration(input.LinkTimeoutSec) * time.Second,
		ParallelLinkChecks: input.ParallelLinkChecks,

		SnippetLanguages: splitLanguages(input.SnippetLanguages),
		NodeCheckMode:    input.NodeCheckMode,
		NodeOptions:      nodeOptions,

		SurfaceRegistry: registry,

		FailLevel: input.FailLevel,

		ReportConsole: input.ReportFormats == reportFormatAll || input.ReportFormats == reportFormatConsole,
		ReportHTML:    input.ReportFormats == reportFormatAll || input.ReportFormats == reportFormatHTML,
		ReportJSON:    input.ReportFormats == reportFormatAll || input.ReportFormats == reportFormatJSON,

		DeployDir: input.DeployDir,

		CacheLevel: input.CacheLevel,
	}, nil
}

// InstallDeps ...
func (s GuideCheckRunner) InstallDeps(cfg Config) error {
	if !cfg.RunSnippetCheck || cfg.NodeCheckMode == nodeCheckModeBuiltin {
		return nil
	}

	if cfg.NodeCheckMode == nodeCheckModeNode {
		nodeVersion, err := s.nodeChecker.CheckInstall()
		if err != nil {
			return fmt.Errorf("failed to check the Node.js installation: %s", err)
		}

		s.logger.Printf("- nodeVersion: %s", nodeVersion.String())
		s.logger.Println()

		return nil
	}

	nodeVersion, err := s.snippetRunner.CheckInstall()
	if err != nil {
		return fmt.Errorf("failed to check the Node.js installation: %s", err)
	}
	if nodeVersion != nil {
		s.logger.Printf("- nodeVersion: %s", nodeVersion.String())
	}
	s.logger.Println()

	return nil
}

// Result ...
type Result struct {
	Run       report.Run
	RunFailed bool

	ReportDir      string
	HTMLReportPath string
	JSONReportPath string
}

// Run ...
func (s GuideCheckRunner) Run(cfg Config) (Result, error) {
	startedAt := time.Now()

	s.logger.Println()
	s.logger.Infof("Loading guide documents")
	g, err := s.guideLoader.Load(cfg.DocDir)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load the guide: %s", err)
	}
	s.logger.Printf("- %d document(s) in %s", len(g.Documents), cfg.DocDir)

	checks := []string{string(models.CheckDocuments)}
	findings := documentFindings(g)

	if cfg.RunLinkCheck {
		checks = append(checks, string(models.CheckLinks))

		s.logger.Println()
		s.logger.Infof("Checking links")
		findings = append(findings, s.runLinkCheck(g, cfg)...)
	}

	if cfg.RunSnippetCheck {
		checks = append(checks, string(models.CheckSnippets))

		s.logger.Println()
		s.logger.Infof("Checking code snippets")
		findings = append(findings, s.runSnippetCheck(g, cfg)...)
	}

	if cfg.RunSurfaceCheck {
		checks = append(checks, string(models.CheckSurface))

		s.logger.Println()
		s.logger.Infof("Checking CLI flags and config keys")
		findings = append(findings, s.runSurfaceCheck(g, cfg)...)
	}

	run := report.Build(g, findings, report.Meta{
		ToolVersion: toolVersion,
		DocDir:      cfg.DocDir,
		Checks:      checks,
		StartedAt:   startedAt,
		FinishedAt:  time.Now(),
	})

	result := Result{
		Run:       run,
		RunFailed: isRunFailed(run, cfg.FailLevel),
	}

	if cfg.ReportConsole {
		report.NewConsoleSink(os.Stdout, s.logger).Print(run)
	}

	if cfg.ReportHTML || cfg.ReportJSON {
		reportDir, err := output.ReportDir()
		if err != nil {
			return result, err
		}
		result.ReportDir = reportDir

		if cfg.ReportHTML {
			pth := filepath.Join(reportDir, report.HTMLReportFilename)
			if err := report.NewHTMLSink(s.logger).Write(run, pth); err != nil {
				return result, fmt.Errorf("failed to write the HTML report: %s", err)
			}
			result.HTMLReportPath = pth
		}

		if cfg.ReportJSON {
			pth := filepath.Join(reportDir, report.JSONReportFilename)
			if err := report.NewJSONSink(s.logger).Write(run, pth); err != nil {
				return result, fmt.Errorf("failed to write the JSON report: %s", err)
			}
			result.JSONReportPath = pth
		}
	}

	s.logger.Println()
	if result.RunFailed {
		s.logger.Errorf("Guide check failed: %d error(s), %d warning(s), %d flaky link(s)", run.Stats.Errors, run.Stats.Warnings, run.Stats.Flaky)
	} else {
		s.logger.Donef("Guide check succeeded: %d document(s) checked, %d warning(s)", run.Stats.Documents, run.Stats.Warnings)
	}

	return result, nil
}

// ExportOpts ...
type ExportOpts struct {
	RunFailed bool

	Run       report.Run
	DeployDir string

	ReportDir      string
	HTMLReportPath string
	JSONReportPath string
}

// Export ...
func (s GuideCheckRunner) Export(opts ExportOpts) error {
	// export guide check run status
	s.outputExporter.ExportRunResult(opts.RunFailed)

	if err := s.outputExporter.ExportFlakyLinks(opts.Run); err != nil {
		s.logger.Warnf("Failed to export the flaky link list: %s", err)
	}

	s.outputExporter.ExportTestAddonBundles(opts.Run)

	if opts.DeployDir == "" {
		s.logger.Debugf("No deploy dir is set, skipping the report export")
		return nil
	}

	// export the HTML report
	if opts.HTMLReportPath != "" {
		if err := s.outputExporter.ExportHTMLReport(opts.DeployDir, opts.HTMLReportPath); err != nil {
			return err
		}
	}

	// export the JSON results
	if opts.JSONReportPath != "" {
		if err := s.outputExporter.ExportJSONResults(opts.DeployDir, opts.JSONReportPath); err != nil {
			return err
		}
	}

	// export the report archive
	if opts.ReportDir != "" {
		if err := s.outputExporter.ExportReportArchive(opts.DeployDir, opts.ReportDir); err != nil {
			return err
		}
	}

	if opts.HTMLReportPath != "" || opts.JSONReportPath != "" {
		printReportLocationHint(s.logger)
	}

	return nil
}

func (s GuideCheckRunner) loadSurfaceRegistry(pth string) (*surface.Registry, error) {
	if pth == "" {
		registry, err := surface.LoadEmbedded()
		if err != nil {
			return nil, fmt.Errorf("failed to load the builtin framework surface: %s", err)
		}
		return registry, nil
	}

	absPth, err := s.pathModifier.AbsPath(pth)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute surface file path, error: %s", err)
	}
	registry, err := surface.LoadFile(absPth)
	if err != nil {
		return nil, fmt.Errorf("failed to load the framework surface file (%s): %s", absPth, err)
	}
	return registry, nil
}

func (s GuideCheckRunner) runLinkCheck(g *guide.Guide, cfg Config) []models.Finding {
	var resultCache linkcheck.ResultCache
	var linkCache cache.LinkCache
	if cfg.CacheLevel == cacheLevelLinkResults {
		linkCache = cache.NewLinkCache(cache.DefaultPath(cfg.DocDir), s.fileManager, s.logger)
		resultCache = linkCache
	}

	prober := linkcheck.NewHTTPProber(cfg.LinkTimeout, s.logger)
	checker := linkcheck.NewChecker(prober, resultCache, s.logger)
	findings := checker.Check(g, linkcheck.Opts{
		CheckExternal: cfg.CheckExternalLinks,
		Workers:       cfg.ParallelLinkChecks,
	})

	if linkCache != nil {
		if err := linkCache.Save(); err != nil {
			s.logger.Warnf("Failed to save the link check cache, error: %s", err)
		}
	}

	return findings
}

func (s GuideCheckRunner) runSnippetCheck(g *guide.Guide, cfg Config) []models.Finding {
	scriptRunner := nodecommand.Runner(s.snippetRunner)
	if cfg.NodeCheckMode == nodeCheckModeBuiltin {
		scriptRunner = s.builtinRunner
	}

	checker := snippetcheck.NewChecker(scriptRunner, s.builtinRunner, s.scriptWriter, s.fileRemover, cfg.NodeOptions, s.logger)
	return checker.Check(g, cfg.SnippetLanguages)
}

func (s GuideCheckRunner) runSurfaceCheck(g *guide.Guide, cfg Config) []models.Finding {
	checker := surface.NewChecker(cfg.SurfaceRegistry, s.logger)
	return checker.Check(g)
}

// documentFindings converts load failures and missing front matter blocks
// into findings, so they show up in the report next to the checker results.
func documentFindings(g *guide.Guide) []models.Finding {
	var findings []models.Finding
	for _, loadErr := range g.LoadErrors {
		findings = append(findings, models.Finding{
			Check:    models.CheckDocuments,
			Severity: models.SeverityError,
			Document: loadErr.Path,
			Message:  loadErr.Message,
		})
	}
	for _, doc := range g.Documents {
		if doc.FrontMatter == nil {
			findings = append(findings, models.Finding{
				Check:    models.CheckDocuments,
				Severity: models.SeverityWarning,
				Document: doc.Path,
				Line:     1,
				Message:  "document has no front matter block",
			})
		}
	}
	return findings
}

func isRunFailed(run report.Run, failLevel string) bool {
	if run.Stats.Errors > 0 {
		return true
	}
	if failLevel == failLevelWarning {
		return run.Stats.Warnings > 0 || run.Stats.Flaky > 0
	}
	return false
}

func splitLanguages(languages string) []string {
	return strings.FieldsFunc(languages, func(r rune) bool {
		return r == ' ' || r == ','
	})
}
