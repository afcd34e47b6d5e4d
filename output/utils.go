package output

import (
	"fmt"

	"github.com/bitrise-io/go-utils/pathutil"
)

// ReportDir creates the temp dir the report files are written to before
// they are deployed.
func ReportDir() (string, error) {
	tmpDir, err := pathutil.NormalizedOSTempDirPath("guidecheck-report")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir, error: %s", err)
	}

	return tmpDir, nil
}
