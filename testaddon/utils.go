package testaddon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitrise-io/go-utils/v2/log"
)

// Case statuses understood by the addon renderer.
const (
	StatusPassed = "passed"
	StatusFailed = "failed"
)

// ResultFilename is the per-bundle result file the addon renders.
const ResultFilename = "guidecheck-result.json"

// Suite is what the addon shows for one guide document.
type Suite struct {
	Name  string `json:"name"`
	Cases []Case `json:"cases"`
}

// Case is a single check outcome within a suite.
type Case struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type TestAddon interface {
	ReplaceUnsupportedFilenameCharacters(s string) string
	SaveSuiteResult(outputDir string, suite Suite) error
	SaveBundleMetadata(outputDir string, bundleName string) error
}

type testAddon struct {
	logger log.Logger
}

func NewTestAddon(logger log.Logger) TestAddon {
	return &testAddon{
		logger: logger,
	}
}

// ReplaceUnsupportedFilenameCharacters replaces characters '/' and ':', which are unsupported in bundle names
func (t testAddon) ReplaceUnsupportedFilenameCharacters(s string) string {
	s = strings.Replace(s, "/", "-", -1)
	s = strings.Replace(s, ":", "-", -1)
	return s
}

func (t testAddon) SaveSuiteResult(outputDir string, suite Suite) error {
	if err := os.MkdirAll(outputDir, 0700); err != nil {
		return fmt.Errorf("failed to create directory (%s): %w", outputDir, err)
	}

	bytes, err := json.Marshal(suite)
	if err != nil {
		return fmt.Errorf("could not encode suite result: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outputDir, ResultFilename), bytes, 0600); err != nil {
		return fmt.Errorf("failed to write suite result: %w", err)
	}

	t.logger.Debugf("Test addon bundle saved to %s", outputDir)

	return nil
}

func (t testAddon) SaveBundleMetadata(outputDir string, bundleName string) error {
	// The addon identifies a bundle by its test-info.json.
	type testBundle struct {
		BundleName string `json:"test-name"`
	}
	bytes, err := json.Marshal(testBundle{
		BundleName: bundleName,
	})
	if err != nil {
		return fmt.Errorf("could not encode metadata: %w", err)
	}
	if err = os.WriteFile(filepath.Join(outputDir, "test-info.json"), bytes, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
