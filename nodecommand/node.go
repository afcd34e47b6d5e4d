package nodecommand

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/log"
	version "github.com/hashicorp/go-version"
)

// MinimumMajorVersion is the oldest Node.js major whose parser covers the
// syntax the guide snippets use.
const MinimumMajorVersion = 18

var nodeCommandEnvs = []string{"NO_COLOR=1"}

type nodeSyntaxRunner struct {
	logger         log.Logger
	commandFactory command.Factory
}

func NewNodeRunner(logger log.Logger, commandFactory command.Factory) Runner {
	return &nodeSyntaxRunner{
		logger:         logger,
		commandFactory: commandFactory,
	}
}

// Run parses the script with node --check. A nonzero exit code means the
// script has syntax errors and is reported through Output, not as an error.
func (c *nodeSyntaxRunner) Run(workDir string, scriptPath string, nodeArgs []string) (Output, error) {
	var outBuffer bytes.Buffer

	args := append([]string{"--check"}, nodeArgs...)
	args = append(args, scriptPath)
	cmd := c.commandFactory.Create("node", args, &command.Opts{
		Stdout: &outBuffer,
		Stderr: &outBuffer,
		Env:    nodeCommandEnvs,
		Dir:    workDir,
	})

	c.logger.Debugf("$ %s", cmd.PrintableCommandArgs())

	exitCode, err := cmd.RunAndReturnExitCode()
	if err != nil {
		var exerr *exec.ExitError
		if errors.As(err, &exerr) {
			return Output{
				RawOut:   outBuffer.Bytes(),
				ExitCode: exitCode,
			}, nil
		}

		return Output{
			RawOut:   outBuffer.Bytes(),
			ExitCode: 1,
		}, err
	}

	return Output{
		RawOut:   outBuffer.Bytes(),
		ExitCode: 0,
	}, nil
}

type nodeDependencyChecker struct {
	logger         log.Logger
	commandFactory command.Factory
}

func NewNodeDependencyChecker(logger log.Logger, commandFactory command.Factory) DependencyChecker {
	return &nodeDependencyChecker{
		logger:         logger,
		commandFactory: commandFactory,
	}
}

func (c *nodeDependencyChecker) CheckInstall() (*version.Version, error) {
	c.logger.Println()
	c.logger.Infof("Checking if Node.js is installed")

	cmd := c.commandFactory.Create("node", []string{"--version"}, nil)

	versionOut, err := cmd.RunAndReturnTrimmedCombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("node is not installed: %w", err)
	}

	nodeVersion, err := version.NewVersion(strings.TrimPrefix(versionOut, "v"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse node version (%s): %w", versionOut, err)
	}

	if nodeVersion.Segments()[0] < MinimumMajorVersion {
		return nil, fmt.Errorf("node %s is too old for the syntax check, v%d or newer is required", nodeVersion, MinimumMajorVersion)
	}

	return nodeVersion, nil
}
