package nodecommand

import (
	"errors"
	"os/exec"
	"testing"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/guidewright/e2e-testing-guide/mocks"
)

func Test_GivenModernNode_WhenCheckInstall_ThenReturnsVersion(t *testing.T) {
	// Given
	checker, cmd := createDependencyCheckerAndMocks()
	cmd.On("RunAndReturnTrimmedCombinedOutput").Return("v20.11.1", nil)

	// When
	nodeVersion, err := checker.CheckInstall()

	// Then
	require.NoError(t, err)
	require.NotNil(t, nodeVersion)
	assert.Equal(t, "20.11.1", nodeVersion.String())
}

func Test_GivenOldNode_WhenCheckInstall_ThenFails(t *testing.T) {
	// Given
	checker, cmd := createDependencyCheckerAndMocks()
	cmd.On("RunAndReturnTrimmedCombinedOutput").Return("v16.20.0", nil)

	// When
	nodeVersion, err := checker.CheckInstall()

	// Then
	assert.Nil(t, nodeVersion)
	require.EqualError(t, err, "node 16.20.0 is too old for the syntax check, v18 or newer is required")
}

func Test_GivenMissingNode_WhenCheckInstall_ThenFails(t *testing.T) {
	// Given
	checker, cmd := createDependencyCheckerAndMocks()
	cmd.On("RunAndReturnTrimmedCombinedOutput").Return("", errors.New(`exec: "node": executable file not found in $PATH`))

	// When
	nodeVersion, err := checker.CheckInstall()

	// Then
	assert.Nil(t, nodeVersion)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node is not installed")
}

func Test_GivenScript_WhenRun_ThenInvokesNodeWithCheckFlag(t *testing.T) {
	// Given
	cmd := new(mocks.Command)
	cmd.On("PrintableCommandArgs").Return(`node "--check" "snippet.mjs"`)
	cmd.On("RunAndReturnExitCode").Return(0, nil)

	factory := new(mocks.Factory)
	factory.On("Create", "node", []string{"--check", "snippet.mjs"}, mock.Anything).Return(cmd)

	runner := NewNodeRunner(log.NewLogger(), factory)

	// When
	output, err := runner.Run("workdir", "snippet.mjs", nil)

	// Then
	require.NoError(t, err)
	assert.Equal(t, 0, output.ExitCode)
	factory.AssertCalled(t, "Create", "node", []string{"--check", "snippet.mjs"}, mock.Anything)
}

func Test_GivenScriptWithSyntaxError_WhenRun_ThenExitCodeReportedWithoutError(t *testing.T) {
	// Given
	cmd := new(mocks.Command)
	cmd.On("PrintableCommandArgs").Return(`node "--check" "snippet.mjs"`)
	cmd.On("RunAndReturnExitCode").Return(1, exitError(t))

	factory := new(mocks.Factory)
	factory.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(cmd)

	runner := NewNodeRunner(log.NewLogger(), factory)

	// When
	output, err := runner.Run("workdir", "snippet.mjs", nil)

	// Then
	require.NoError(t, err)
	assert.Equal(t, 1, output.ExitCode)
}

func Test_GivenCommandFailure_WhenRun_ThenErrorReturned(t *testing.T) {
	// Given
	cmd := new(mocks.Command)
	cmd.On("PrintableCommandArgs").Return(`node "--check" "snippet.mjs"`)
	cmd.On("RunAndReturnExitCode").Return(1, errors.New("fork/exec: permission denied"))

	factory := new(mocks.Factory)
	factory.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(cmd)

	runner := NewNodeRunner(log.NewLogger(), factory)

	// When
	output, err := runner.Run("workdir", "snippet.mjs", nil)

	// Then
	require.Error(t, err)
	assert.Equal(t, 1, output.ExitCode)
}

// Helpers

func createDependencyCheckerAndMocks() (DependencyChecker, *mocks.Command) {
	cmd := new(mocks.Command)

	factory := new(mocks.Factory)
	factory.On("Create", "node", []string{"--version"}, mock.Anything).Return(cmd)

	return NewNodeDependencyChecker(log.NewLogger(), factory), cmd
}

func exitError(t *testing.T) *exec.ExitError {
	t.Helper()

	err := exec.Command("false").Run()
	var exerr *exec.ExitError
	require.True(t, errors.As(err, &exerr))
	return exerr
}
