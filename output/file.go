// Package output writes formatted results to their destinations.
package output

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"bqexplore/core"
)

// File writes a formatted result to a file on disk.
type File struct {
	fileName  string
	log       *zap.Logger
	formatter core.Formatter
}

func NewFile(fileName string, formatter core.Formatter, logger *zap.Logger) *File {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &File{
		fileName:  fileName,
		log:       logger,
		formatter: formatter,
	}
}

func (o *File) Write(result *core.Result) error {
	b, err := result.Format(o.formatter, 0, -1)
	if err != nil {
		return fmt.Errorf("result.Format: %w", err)
	}

	file, err := os.Create(o.fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := file.Write(b); err != nil {
		return err
	}

	o.log.Info("saved result", zap.String("path", o.fileName))
	return nil
}
