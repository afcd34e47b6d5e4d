package output

import (
	"fmt"
	"path/filepath"

	"github.com/bitrise-io/bitrise/configs"
	"github.com/bitrise-io/go-steputils/v2/export"
	"github.com/bitrise-io/go-utils/command"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/ziputil"

	"github.com/guidewright/e2e-testing-guide/models"
	"github.com/guidewright/e2e-testing-guide/report"
	"github.com/guidewright/e2e-testing-guide/testaddon"
)

const (
	resultEnvVarKey     = "GUIDECHECK_RESULT"
	reportPathEnvVarKey = "GUIDECHECK_REPORT_PATH"

	flakyLinksEnvVarKey              = "GUIDECHECK_FLAKY_LINKS"
	flakyLinksEnvVarSizeLimitInBytes = 1024
)

// ReportArchiveFilename is the name of the zipped report in the deploy dir.
const ReportArchiveFilename = "guidecheck-report.zip"

// Exporter ...
type Exporter interface {
	ExportRunResult(failed bool)
	ExportHTMLReport(deployDir, htmlReportPth string) error
	ExportJSONResults(deployDir, jsonReportPth string) error
	ExportReportArchive(deployDir, reportDir string) error
	ExportFlakyLinks(run report.Run) error
	ExportTestAddonBundles(run report.Run)
}

type exporter struct {
	envRepository     env.Repository
	logger            log.Logger
	outputExporter    export.Exporter
	testAddonExporter testaddon.Exporter
}

// NewExporter ...
func NewExporter(envRepository env.Repository, logger log.Logger, outputExporter export.Exporter, testAddonExporter testaddon.Exporter) Exporter {
	return &exporter{
		envRepository:     envRepository,
		logger:            logger,
		outputExporter:    outputExporter,
		testAddonExporter: testAddonExporter,
	}
}

func (e exporter) ExportRunResult(failed bool) {
	status := "succeeded"
	if failed {
		status = "failed"
	}
	if err := e.envRepository.Set(resultEnvVarKey, status); err != nil {
		e.logger.Warnf("Failed to export: %s: %s", resultEnvVarKey, err)
	}
}

func (e exporter) ExportHTMLReport(deployDir, htmlReportPth string) error {
	deployPth := filepath.Join(deployDir, report.HTMLReportFilename)
	if err := e.outputExporter.ExportOutputFile(reportPathEnvVarKey, htmlReportPth, deployPth); err != nil {
		return fmt.Errorf("failed to export the HTML report to (%s): %w", deployPth, err)
	}

	return nil
}

func (e exporter) ExportJSONResults(deployDir, jsonReportPth string) error {
	deployPth := filepath.Join(deployDir, report.JSONReportFilename)
	if err := command.CopyFile(jsonReportPth, deployPth); err != nil {
		return fmt.Errorf("failed to copy JSON results from (%s) to (%s): %w", jsonReportPth, deployPth, err)
	}

	return nil
}

func (e exporter) ExportReportArchive(deployDir, reportDir string) error {
	outputPath := filepath.Join(deployDir, ReportArchiveFilename)
	if err := ziputil.ZipDir(reportDir, outputPath, true); err != nil {
		return fmt.Errorf("failed to compress the report directory: %w", err)
	}

	return nil
}

func (e exporter) ExportFlakyLinks(run report.Run) error {
	flakyLinks := collectFlakyLinks(run)
	if len(flakyLinks) == 0 {
		return nil
	}

	return e.exportFlakyLinks(flakyLinks)
}

// ExportTestAddonBundles writes one bundle per guide document into the test
// addon dir, when the addon is active for the build.
func (e exporter) ExportTestAddonBundles(run report.Run) {
	addonResultPath := e.envRepository.Get(configs.BitrisePerStepTestResultDirEnvKey)
	if len(addonResultPath) == 0 {
		e.logger.Debugf("Test addon export skipped: %s is not set", configs.BitrisePerStepTestResultDirEnvKey)
		return
	}

	e.logger.Println()
	e.logger.Infof("Exporting test results")

	for _, doc := range run.Documents {
		if err := e.testAddonExporter.SaveDocumentResult(testaddon.DocumentResult{
			TargetAddonPath:       addonResultPath,
			TargetAddonBundleName: doc.Path,
			Suite:                 suiteFor(doc),
		}); err != nil {
			e.logger.Warnf("Failed to export test results: %s", err)
		}
	}
}

func collectFlakyLinks(run report.Run) []string {
	storedFlakyLinks := map[string]bool{}
	var flakyLinks []string

	for _, doc := range run.Documents {
		for _, finding := range doc.Findings {
			if finding.Severity != models.SeverityFlaky || finding.Target == "" {
				continue
			}

			if _, stored := storedFlakyLinks[finding.Target]; !stored {
				storedFlakyLinks[finding.Target] = true
				flakyLinks = append(flakyLinks, finding.Target)
			}
		}
	}

	return flakyLinks
}

func (e exporter) exportFlakyLinks(flakyLinks []string) error {
	var flakyLinksMessage string
	for i, flakyLink := range flakyLinks {
		flakyLinksMessageLine := fmt.Sprintf("- %s\n", flakyLink)

		if len(flakyLinksMessage)+len(flakyLinksMessageLine) > flakyLinksEnvVarSizeLimitInBytes {
			e.logger.Warnf("%s env var size limit (%d characters) exceeded. Skipping %d links.", flakyLinksEnvVarKey, flakyLinksEnvVarSizeLimitInBytes, len(flakyLinks)-i)
			break
		}

		flakyLinksMessage += flakyLinksMessageLine
	}

	if err := e.envRepository.Set(flakyLinksEnvVarKey, flakyLinksMessage); err != nil {
		return fmt.Errorf("failed to export %s: %w", flakyLinksEnvVarKey, err)
	}

	return nil
}

func suiteFor(doc report.DocumentResult) testaddon.Suite {
	suite := testaddon.Suite{Name: doc.Path}
	if doc.Clean() {
		suite.Cases = []testaddon.Case{{Name: "document checks", Status: testaddon.StatusPassed}}
		return suite
	}

	for _, finding := range doc.Findings {
		suite.Cases = append(suite.Cases, testaddon.Case{
			Name:    caseName(finding),
			Status:  testaddon.StatusFailed,
			Message: finding.Message,
		})
	}

	return suite
}

func caseName(finding models.Finding) string {
	name := string(finding.Check)
	if finding.Target != "" {
		name = fmt.Sprintf("%s: %s", finding.Check, finding.Target)
	}
	if finding.Line > 0 {
		name = fmt.Sprintf("%s (line %d)", name, finding.Line)
	}
	return name
}
