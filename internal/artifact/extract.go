package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chromedevtools/releng/internal/constants"
	"github.com/chromedevtools/releng/internal/logging"
	"github.com/chromedevtools/releng/internal/models"
)

// Extractor turns a directory listing into a VersionRecord.
type Extractor struct {
	registry *Registry
	logger   *logging.Logger
}

// NewExtractor creates an extractor. A nil registry uses DefaultRegistry,
// a nil logger discards output.
func NewExtractor(registry *Registry, logger *logging.Logger) *Extractor {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Extractor{registry: registry, logger: logger}
}

// jarSuffix marks a packed bundle.
const jarSuffix = ".jar"

// Entry is one name in the plugins directory.
type Entry struct {
	Name string
	Dir  bool
}

// BundleName returns the name patterns are matched against. Packed bundles
// must end in .jar, which is stripped; unpacked bundles are directories and
// are used as-is. Anything else is not a bundle.
func BundleName(entry Entry) (string, bool) {
	if entry.Dir {
		if strings.HasSuffix(entry.Name, jarSuffix) {
			return "", false
		}
		return entry.Name, true
	}
	name, ok := strings.CutSuffix(entry.Name, jarSuffix)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// Match applies every pattern to the bundle names of entries. dir is only
// used in error messages. Each pattern must match exactly one entry,
// otherwise an *AmbiguousArtifactError is returned for the first offending
// pattern.
func (e *Extractor) Match(dir string, entries []Entry) (*models.VersionRecord, error) {
	values := make(map[string]string)

	for _, p := range e.registry.patterns {
		var matches []string
		var groups []string
		for _, entry := range entries {
			name, ok := BundleName(entry)
			if !ok {
				continue
			}
			if m := p.re.FindStringSubmatch(name); m != nil {
				matches = append(matches, entry.Name)
				groups = m[1:]
			}
		}
		if len(matches) != 1 {
			sort.Strings(matches)
			return nil, &AmbiguousArtifactError{
				Kind:    p.Kind,
				Pattern: p.Expr,
				Dir:     dir,
				Matches: matches,
			}
		}

		e.logger.Debug().Str("kind", p.Kind).Str("artifact", matches[0]).Msg("matched artifact")
		for i, field := range p.Fields {
			values[field] = groups[i]
		}
	}

	fields := make([]models.VersionField, 0, len(e.registry.order))
	for _, key := range e.registry.order {
		fields = append(fields, models.VersionField{Key: key, Value: values[key]})
	}
	return models.NewVersionRecord(fields)
}

// Scan lists <buildDir>/plugins and matches its entry names.
// Both files and directories count: unpacked bundles are directories.
func (e *Extractor) Scan(buildDir string) (*models.VersionRecord, error) {
	pluginsDir := filepath.Join(buildDir, constants.PluginsDirName)

	dirEntries, err := os.ReadDir(pluginsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", pluginsDir, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		entries = append(entries, Entry{Name: de.Name(), Dir: de.IsDir()})
	}
	e.logger.Debugf("scanning %d entries in %s", len(entries), pluginsDir)

	return e.Match(pluginsDir, entries)
}

// Run scans buildDir and writes pluginVersion.properties into outputDir.
// Nothing is written when extraction fails.
func (e *Extractor) Run(buildDir, outputDir string) (string, *models.VersionRecord, error) {
	record, err := e.Scan(buildDir)
	if err != nil {
		return "", nil, err
	}

	path, err := WriteProperties(outputDir, record)
	if err != nil {
		return "", nil, err
	}

	e.logger.Info().
		Str("file", path).
		Str(models.FieldMainVersion, record.MainVersion()).
		Str(models.FieldBackendVersion, record.BackendVersion()).
		Msg("wrote plugin versions")
	return path, record, nil
}
