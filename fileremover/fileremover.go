package fileremover

import "os"

// FileRemover deletes the scratch directories the snippet check writes for
// the external parser.
type FileRemover interface {
	RemoveAll(path string) error
}

type fileRemover struct{}

// NewFileRemover ...
func NewFileRemover() FileRemover {
	return fileRemover{}
}

func (r fileRemover) RemoveAll(path string) error {
	return os.RemoveAll(path)
}
