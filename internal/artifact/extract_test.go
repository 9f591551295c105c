package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chromedevtools/releng/internal/constants"
	"github.com/chromedevtools/releng/internal/models"
)

// makeBuild creates <tmp>/plugins with the given entries. Names ending in "/"
// become directories (unpacked bundles), the rest empty files.
func makeBuild(t *testing.T, entries ...string) string {
	t.Helper()
	buildDir := t.TempDir()
	plugins := filepath.Join(buildDir, constants.PluginsDirName)
	require.NoError(t, os.Mkdir(plugins, 0o755))
	for _, e := range entries {
		if len(e) > 0 && e[len(e)-1] == '/' {
			require.NoError(t, os.Mkdir(filepath.Join(plugins, e[:len(e)-1]), 0o755))
			continue
		}
		require.NoError(t, os.WriteFile(filepath.Join(plugins, e), nil, 0o644))
	}
	return buildDir
}

// jars returns file entries for names.
func jars(names ...string) []Entry {
	entries := make([]Entry, 0, len(names))
	for _, n := range names {
		entries = append(entries, Entry{Name: n})
	}
	return entries
}

func TestMatch_ExactlyOnePerPattern(t *testing.T) {
	entries := jars(
		"org.eclipse.core.runtime_3.7.0.v20110110.jar",
		"org.chromium.sdk_0.3.9.201304241232.jar",
		"org.chromium.sdk.wipbackends_0.2.1.201304241300.jar",
		"org.chromium.debug.core_0.3.9.201304241232.jar",
	)

	record, err := NewExtractor(nil, nil).Match("plugins", entries)
	require.NoError(t, err)

	assert.Equal(t, []models.VersionField{
		{Key: models.FieldMainVersion, Value: "0.3.9"},
		{Key: models.FieldBackendVersion, Value: "0.2.1"},
		{Key: models.FieldMainBuilderVersion, Value: "201304241232"},
		{Key: models.FieldBackendBuilderVersion, Value: "201304241300"},
	}, record.Fields())
}

func TestMatch_Ambiguous(t *testing.T) {
	testCases := []struct {
		name           string
		entries        []Entry
		wantKind       string
		wantMissing    bool
		wantDuplicated bool
		wantMatches    []string
	}{
		{
			name:        "main_missing",
			entries:     jars("org.chromium.sdk.wipbackends_0.2.1.q.jar"),
			wantKind:    "main",
			wantMissing: true,
		},
		{
			name:        "backend_missing",
			entries:     jars("org.chromium.sdk_0.3.9.q.jar"),
			wantKind:    "backend",
			wantMissing: true,
		},
		{
			name: "main_duplicated",
			entries: jars(
				"org.chromium.sdk_0.3.9.b.jar",
				"org.chromium.sdk_0.3.8.a.jar",
				"org.chromium.sdk.wipbackends_0.2.1.q.jar",
			),
			wantKind:       "main",
			wantDuplicated: true,
			wantMatches:    []string{"org.chromium.sdk_0.3.8.a.jar", "org.chromium.sdk_0.3.9.b.jar"},
		},
		{
			name: "backend_jar_and_directory",
			entries: []Entry{
				{Name: "org.chromium.sdk_0.3.9.q.jar"},
				{Name: "org.chromium.sdk.wipbackends_0.2.1.q.jar"},
				{Name: "org.chromium.sdk.wipbackends_0.2.1.q", Dir: true},
			},
			wantKind:       "backend",
			wantDuplicated: true,
			wantMatches:    []string{"org.chromium.sdk.wipbackends_0.2.1.q", "org.chromium.sdk.wipbackends_0.2.1.q.jar"},
		},
		{
			name:        "empty_listing",
			entries:     nil,
			wantKind:    "main",
			wantMissing: true,
		},
		{
			name:        "jar_without_qualifier",
			entries:     jars("org.chromium.sdk_0.3.9.jar", "org.chromium.sdk.wipbackends_0.2.1.jar"),
			wantKind:    "main",
			wantMissing: true,
		},
		{
			name: "file_without_jar_suffix",
			entries: jars(
				"org.chromium.sdk_0.3.9.q.jar",
				"org.chromium.sdk.wipbackends_0.2.1.q",
			),
			wantKind:    "backend",
			wantMissing: true,
		},
		{
			name: "directory_with_jar_suffix",
			entries: []Entry{
				{Name: "org.chromium.sdk_0.3.9.jar", Dir: true},
				{Name: "org.chromium.sdk.wipbackends_0.2.1.q", Dir: true},
			},
			wantKind:    "main",
			wantMissing: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewExtractor(nil, nil).Match("plugins", tc.entries)

			var ambiguous *AmbiguousArtifactError
			require.True(t, errors.As(err, &ambiguous), "want AmbiguousArtifactError, got %v", err)
			assert.Equal(t, tc.wantKind, ambiguous.Kind)
			assert.Equal(t, tc.wantMissing, ambiguous.Missing())
			assert.Equal(t, tc.wantDuplicated, ambiguous.Duplicated())
			if tc.wantMatches != nil {
				assert.Equal(t, tc.wantMatches, ambiguous.Matches)
			}
			assert.Contains(t, err.Error(), "plugins")
		})
	}
}

func TestRun_WritesProperties(t *testing.T) {
	buildDir := makeBuild(t,
		"org.chromium.sdk_0.3.9.201304241232.jar",
		"org.chromium.sdk.wipbackends_0.2.1.201304241300/",
		"org.chromium.debug.ui_0.3.9.201304241232.jar",
	)
	outDir := t.TempDir()

	path, record, err := NewExtractor(nil, nil).Run(buildDir, outDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, constants.PropertiesFileName), path)
	assert.Equal(t, "0.3.9", record.MainVersion())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"mainVersion=0.3.9\n"+
			"backendVersion=0.2.1\n"+
			"mainBuilderVersion=201304241232\n"+
			"backendBuilderVersion=201304241300\n",
		string(data))

	// only the properties file is left behind
	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, constants.PropertiesFileName, entries[0].Name())
}

// TestRun_AmbiguousWritesNothing verifies a failed extraction leaves no output file.
func TestRun_AmbiguousWritesNothing(t *testing.T) {
	for name, entries := range map[string][]string{
		"zero":     {"org.chromium.sdk_0.3.9.a.jar"},
		"multiple": {"org.chromium.sdk_0.3.9.a.jar", "org.chromium.sdk_0.4.0.b.jar", "org.chromium.sdk.wipbackends_0.2.1.a.jar"},
	} {
		t.Run(name, func(t *testing.T) {
			buildDir := makeBuild(t, entries...)
			outDir := t.TempDir()

			_, _, err := NewExtractor(nil, nil).Run(buildDir, outDir)

			var ambiguous *AmbiguousArtifactError
			require.ErrorAs(t, err, &ambiguous)

			dirEntries, err := os.ReadDir(outDir)
			require.NoError(t, err)
			assert.Empty(t, dirEntries)
		})
	}
}

// TestRun_OverwritesExisting verifies a stale properties file is replaced.
func TestRun_OverwritesExisting(t *testing.T) {
	buildDir := makeBuild(t,
		"org.chromium.sdk_1.0.0.new.jar",
		"org.chromium.sdk.wipbackends_2.0.0.new.jar",
	)
	outDir := t.TempDir()
	stale := filepath.Join(outDir, constants.PropertiesFileName)
	require.NoError(t, os.WriteFile(stale, []byte("mainVersion=0.0.1\nextra=1\n"), 0o644))

	_, _, err := NewExtractor(nil, nil).Run(buildDir, outDir)
	require.NoError(t, err)

	data, err := os.ReadFile(stale)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "0.0.1")
	assert.NotContains(t, string(data), "extra")
}

func TestBundleName(t *testing.T) {
	testCases := []struct {
		entry  Entry
		want   string
		wantOK bool
	}{
		{Entry{Name: "org.chromium.sdk_0.3.9.q.jar"}, "org.chromium.sdk_0.3.9.q", true},
		{Entry{Name: "org.chromium.sdk_0.3.9.q", Dir: true}, "org.chromium.sdk_0.3.9.q", true},
		{Entry{Name: "org.chromium.sdk_0.3.9.q"}, "", false},
		{Entry{Name: "org.chromium.sdk_0.3.9.q.jar", Dir: true}, "", false},
		{Entry{Name: ".jar"}, "", false},
	}

	for _, tc := range testCases {
		got, ok := BundleName(tc.entry)
		assert.Equal(t, tc.wantOK, ok, tc.entry.Name)
		assert.Equal(t, tc.want, got, tc.entry.Name)
	}
}

// TestRun_QualifierlessJarWritesNothing verifies "jar" is never taken for a qualifier.
func TestRun_QualifierlessJarWritesNothing(t *testing.T) {
	buildDir := makeBuild(t,
		"org.chromium.sdk_0.3.9.jar",
		"org.chromium.sdk.wipbackends_0.2.1.jar",
	)
	outDir := t.TempDir()

	_, _, err := NewExtractor(nil, nil).Run(buildDir, outDir)

	var ambiguous *AmbiguousArtifactError
	require.ErrorAs(t, err, &ambiguous)
	assert.True(t, ambiguous.Missing())

	_, statErr := os.Stat(filepath.Join(outDir, constants.PropertiesFileName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestScan_MissingPluginsDir(t *testing.T) {
	_, err := NewExtractor(nil, nil).Scan(t.TempDir())
	require.Error(t, err)

	var ambiguous *AmbiguousArtifactError
	assert.False(t, errors.As(err, &ambiguous))
}

// TestRoundTrip verifies synthetic versions survive filename → properties → record byte-for-byte.
func TestRoundTrip(t *testing.T) {
	cases := []struct {
		main, mainQ, backend, backendQ string
	}{
		{"0.0.0", "a", "0.0.0", "b"},
		{"10.200.3000", "v20240101-1200", "1.2.3", "N20130424"},
		{"1.2.3", "qualifier_with_underscores", "4.5.6", "MixedCase-42"},
	}

	for _, c := range cases {
		buildDir := makeBuild(t,
			"org.chromium.sdk_"+c.main+"."+c.mainQ+".jar",
			"org.chromium.sdk.wipbackends_"+c.backend+"."+c.backendQ+".jar",
		)
		outDir := t.TempDir()

		path, _, err := NewExtractor(nil, nil).Run(buildDir, outDir)
		require.NoError(t, err)

		record, err := ReadProperties(path)
		require.NoError(t, err)

		get := func(k string) string {
			v, ok := record.Get(k)
			require.True(t, ok, "missing %s", k)
			return v
		}
		assert.Equal(t, c.main, get(models.FieldMainVersion))
		assert.Equal(t, c.mainQ, get(models.FieldMainBuilderVersion))
		assert.Equal(t, c.backend, get(models.FieldBackendVersion))
		assert.Equal(t, c.backendQ, get(models.FieldBackendBuilderVersion))
		assert.Equal(t, 4, record.Len())
	}
}
