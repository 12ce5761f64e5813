package config

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// RunID identifies a run by its start time.
func RunID(t time.Time) string {
	return t.Format("20060102_150405")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger builds the run logger writing to out and, when l.File is set,
// appending to that file. Every entry carries run_id and stage. The
// returned closer releases the log file.
func (l Logging) NewLogger(fs afero.Fs, out io.Writer, stage, runID string) (*logrus.Entry, io.Closer, error) {
	logger := logrus.New()

	level := logrus.InfoLevel
	if l.Level != "" {
		lvl, err := logrus.ParseLevel(l.Level)
		if err != nil {
			return nil, nil, err
		}
		level = lvl
	}
	logger.SetLevel(level)

	if l.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var closer io.Closer = nopCloser{}
	if l.File != "" {
		if err := fs.MkdirAll(filepath.Dir(l.File), 0o755); err != nil {
			return nil, nil, err
		}
		f, err := fs.OpenFile(l.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		out = io.MultiWriter(out, f)
		closer = f
	}
	logger.SetOutput(out)

	return logger.WithFields(logrus.Fields{"run_id": runID, "stage": stage}), closer, nil
}
