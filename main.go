package main

import (
	"os"

	"github.com/bitrise-io/go-steputils/v2/export"
	"github.com/bitrise-io/go-steputils/v2/stepconf"
	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/joho/godotenv"

	"github.com/guidewright/e2e-testing-guide/fileremover"
	"github.com/guidewright/e2e-testing-guide/guide"
	"github.com/guidewright/e2e-testing-guide/nodecommand"
	"github.com/guidewright/e2e-testing-guide/output"
	"github.com/guidewright/e2e-testing-guide/step"
	"github.com/guidewright/e2e-testing-guide/testaddon"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := log.NewLogger()

	// a local .env makes the step runnable outside of a Bitrise build
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warnf("Failed to load the .env file: %s", err)
	}

	guideCheckRunner := createStep(logger)

	config, err := guideCheckRunner.ProcessConfig()
	if err != nil {
		logger.Errorf("Failed to process Step inputs: %s", err)
		return 1
	}

	if err := guideCheckRunner.InstallDeps(config); err != nil {
		logger.Errorf("Failed to install Step dependencies: %s", err)
		return 1
	}

	result, runErr := guideCheckRunner.Run(config)
	if runErr != nil {
		logger.Errorf("Failed to execute Step main logic: %s", runErr)
		return 1
	}

	opts := step.ExportOpts{
		RunFailed:      result.RunFailed,
		Run:            result.Run,
		DeployDir:      config.DeployDir,
		ReportDir:      result.ReportDir,
		HTMLReportPath: result.HTMLReportPath,
		JSONReportPath: result.JSONReportPath,
	}
	if err := guideCheckRunner.Export(opts); err != nil {
		logger.Errorf("Failed to export Step outputs: %s", err)
		return 1
	}

	if result.RunFailed {
		return 1
	}
	return 0
}

func createStep(logger log.Logger) step.GuideCheckRunner {
	envRepository := env.NewRepository()
	inputParser := stepconf.NewInputParser(envRepository)
	commandFactory := command.NewFactory(envRepository)
	pathChecker := pathutil.NewPathChecker()
	pathModifier := pathutil.NewPathModifier()
	fileManager := fileutil.NewFileManager()
	fileRemover := fileremover.NewFileRemover()

	guideLoader := guide.NewLoader(logger)

	nodeChecker := nodecommand.NewNodeDependencyChecker(logger, commandFactory)
	nodeRunner := nodecommand.NewNodeRunner(logger, commandFactory)
	builtinRunner := nodecommand.NewBuiltinRunner(logger, fileManager)
	snippetRunner := nodecommand.NewFallbackRunner(nodeRunner, nodeChecker, logger, fileManager)
	scriptWriter := nodecommand.NewScriptWriter(pathutil.NewPathProvider(), fileutil.NewFileManager())

	outputExporter := output.NewExporter(envRepository, logger, export.NewExporter(commandFactory), testaddon.NewExporter(testaddon.NewTestAddon(logger)))

	return step.NewGuideCheckRunner(inputParser, logger, guideLoader, nodeChecker, snippetRunner, builtinRunner, scriptWriter, outputExporter, pathChecker, pathModifier, fileManager, fileRemover)
}
