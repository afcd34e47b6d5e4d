package step

import (
	"github.com/bitrise-io/go-utils/colorstring"
	"github.com/bitrise-io/go-utils/v2/log"
)

func printReportLocationHint(logger log.Logger) {
	logger.Infof(colorstring.Magenta(`
The report files are stored in $BITRISE_DEPLOY_DIR, and the HTML report's full path
is available in the $GUIDECHECK_REPORT_PATH environment variable.

If you have the Deploy to Bitrise.io step (after this step),
that will attach the report to your build as an artifact!`))
}
