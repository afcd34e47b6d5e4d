package nodecommand

import (
	"fmt"
	"path/filepath"

	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-io/go-utils/v2/pathutil"
)

// ScriptWriter persists snippet content so an external parser can read it.
type ScriptWriter interface {
	Write(content string, filename string) (string, error)
}

type scriptWriter struct {
	pathProvider pathutil.PathProvider
	fileWriter   fileutil.FileManager
}

// NewScriptWriter ...
func NewScriptWriter(pathProvider pathutil.PathProvider, fileWriter fileutil.FileManager) ScriptWriter {
	return &scriptWriter{pathProvider: pathProvider, fileWriter: fileWriter}
}

func (w scriptWriter) Write(content string, filename string) (string, error) {
	dir, err := w.pathProvider.CreateTempDir("")
	if err != nil {
		return "", fmt.Errorf("unable to create temp dir for writing the snippet: %v", err)
	}
	scriptPath := filepath.Join(dir, filename)
	if err = w.fileWriter.Write(scriptPath, content, 0644); err != nil {
		return "", fmt.Errorf("unable to write snippet content into file: %v", err)
	}
	return scriptPath, nil
}
