package artifact

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/magiconair/properties"

	"github.com/chromedevtools/releng/internal/constants"
	"github.com/chromedevtools/releng/internal/models"
)

// encodeProperties renders record as key=value lines in field order.
func encodeProperties(record *models.VersionRecord) ([]byte, error) {
	p := properties.NewProperties()
	p.DisableExpansion = true
	p.WriteSeparator = "="

	for _, f := range record.Fields() {
		if _, _, err := p.Set(f.Key, f.Value); err != nil {
			return nil, fmt.Errorf("invalid property %s: %w", f.Key, err)
		}
	}

	var buf bytes.Buffer
	if _, err := p.Write(&buf, properties.UTF8); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// tempPattern names the staging file next to pluginVersion.properties.
const tempPattern = "." + constants.PropertiesFileName + ".*"

// removeStaleTemps deletes staging files left by a run that was killed
// before its rename.
func removeStaleTemps(outputDir string) {
	stale, _ := filepath.Glob(filepath.Join(outputDir, tempPattern))
	for _, name := range stale {
		_ = os.Remove(name)
	}
}

// WriteProperties writes record to <outputDir>/pluginVersion.properties and
// returns the file path. The file is replaced atomically, so readers never
// see a partial file, and an existing file keeps its permissions.
// outputDir must exist.
func WriteProperties(outputDir string, record *models.VersionRecord) (string, error) {
	data, err := encodeProperties(record)
	if err != nil {
		return "", err
	}

	path := filepath.Join(outputDir, constants.PropertiesFileName)
	mode := os.FileMode(constants.PropertiesFileMode)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	removeStaleTemps(outputDir)
	tmp, err := os.CreateTemp(outputDir, tempPattern)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return "", fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return path, nil
}

// ReadProperties loads a properties file into a VersionRecord, keeping file order.
// Property expansion (${key}) is disabled so values come back byte-for-byte.
func ReadProperties(path string) (*models.VersionRecord, error) {
	loader := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := loader.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	fields := make([]models.VersionField, 0, p.Len())
	for _, key := range p.Keys() {
		value, _ := p.Get(key)
		fields = append(fields, models.VersionField{Key: key, Value: value})
	}
	return models.NewVersionRecord(fields)
}
