package intent

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Loader loads intent files.
type Loader interface {
	Load(path string) (*Intent, error)
	LoadDir(dir string) (map[string]*Intent, error)
}

type loader struct {
	log logrus.FieldLogger
}

// NewLoader creates a new intent loader.
func NewLoader(log logrus.FieldLogger) Loader {
	return &loader{
		log: log.WithField("component", "intent_loader"),
	}
}

// Load reads, parses and validates a single intent file.
func (l *loader) Load(path string) (*Intent, error) {
	l.log.WithField("path", path).Debug("loading intent")

	in, err := l.loadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading intent from %s: %w", path, err)
	}

	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("validating intent from %s: %w", path, err)
	}

	return in, nil
}

// LoadDir loads all intent files in a directory, keyed by intent name.
// Invalid files are skipped with a warning so one bad file does not hide
// the rest.
func (l *loader) LoadDir(dir string) (map[string]*Intent, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	intents := make(map[string]*Intent)

	for _, entry := range entries {
		if entry.IsDir() || !isIntentFile(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())

		in, err := l.loadFile(path)
		if err != nil {
			l.log.WithError(err).WithField("file", entry.Name()).Warn("failed to load intent, skipping")
			continue
		}

		if err := in.Validate(); err != nil {
			l.log.WithError(err).WithField("file", entry.Name()).Warn("invalid intent, skipping")
			continue
		}

		intents[in.Name] = in
	}

	return intents, nil
}

// loadFile reads and parses a YAML intent file
func (l *loader) loadFile(path string) (*Intent, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Reading intent files from trusted paths
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	var in Intent
	if err := yaml.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}

	return &in, nil
}

func isIntentFile(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
