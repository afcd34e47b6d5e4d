package nodecommand

import (
	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-io/go-utils/v2/log"
	version "github.com/hashicorp/go-version"
)

type syntaxCheckRunner struct {
	checker DependencyChecker
	runner  Runner
}

// FallbackRunner runs snippets through the preferred parser and downgrades to
// the builtin structural check when the dependency check fails.
type FallbackRunner struct {
	runner         syntaxCheckRunner
	fallbackRunner syntaxCheckRunner
	logger         log.Logger
}

func NewFallbackRunner(runner Runner, checker DependencyChecker, logger log.Logger, fileManager fileutil.FileManager) *FallbackRunner {
	return &FallbackRunner{
		runner: syntaxCheckRunner{
			runner:  runner,
			checker: checker,
		},
		fallbackRunner: syntaxCheckRunner{
			runner:  NewBuiltinRunner(logger, fileManager),
			checker: nil,
		},
		logger: logger,
	}
}

func (sel *FallbackRunner) CheckInstall() (*version.Version, error) {
	if sel.runner.checker == nil {
		return nil, nil
	}

	ver, err := sel.runner.checker.CheckInstall()
	if err == nil {
		return ver, nil
	}

	sel.logger.Errorf("Checking Node.js failed: %s", err)
	sel.logger.Infof("Falling back to the builtin syntax check")
	sel.runner = sel.fallbackRunner

	if sel.runner.checker == nil {
		return nil, nil
	}
	return sel.runner.checker.CheckInstall()
}

func (sel *FallbackRunner) Run(workDir string, scriptPath string, nodeArgs []string) (Output, error) {
	return sel.runner.runner.Run(workDir, scriptPath, nodeArgs)
}
