package testaddon

import "path/filepath"

// Exporter writes per-document result bundles for the Bitrise test report
// addon.
type Exporter interface {
	SaveDocumentResult(result DocumentResult) error
}

type exporter struct {
	testAddon TestAddon
}

// NewExporter ...
func NewExporter(testAddon TestAddon) Exporter {
	return &exporter{testAddon: testAddon}
}

// DocumentResult is one addon bundle: the document shows up as a test suite,
// its findings as failed cases.
type DocumentResult struct {
	TargetAddonPath       string
	TargetAddonBundleName string
	Suite                 Suite
}

func (e exporter) SaveDocumentResult(result DocumentResult) error {
	bundleName := e.testAddon.ReplaceUnsupportedFilenameCharacters(result.TargetAddonBundleName)
	bundleDir := filepath.Join(result.TargetAddonPath, bundleName)

	if err := e.testAddon.SaveSuiteResult(bundleDir, result.Suite); err != nil {
		return err
	}
	if err := e.testAddon.SaveBundleMetadata(bundleDir, bundleName); err != nil {
		return err
	}
	return nil
}
