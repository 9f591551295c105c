package publish

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTasks(t *testing.T) {
	dir := filepath.Join("out", "result")
	tasks, err := BuildTasks(dir, "0.3.9", "0.2.1", []string{"Featured"})
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	assert.Equal(t, filepath.Join(dir, "org.chromium.sdk-wipbackends-0.3.9-0.2.1.tar"), tasks[0].Path)
	assert.Equal(t, filepath.Join(dir, "org.chromium.sdk-lib-0.3.9.tar"), tasks[1].Path)
	assert.Equal(t, filepath.Join(dir, "chromedevtools-0.3.9-wipbackends-0.2.1-site.zip"), tasks[2].Path)

	assert.Equal(t, "ChromeDevTools SDK 0.3.9 WebKit protocol backends 0.2.1", tasks[0].Summary)
	assert.Equal(t, "ChromeDevTools SDK 0.3.9 standalone library", tasks[1].Summary)
	assert.Equal(t, "ChromeDevTools 0.3.9 Eclipse update site with WebKit protocol backends 0.2.1", tasks[2].Summary)

	for _, task := range tasks {
		assert.Equal(t, []string{"Featured"}, task.Labels)
	}
}

// TestBuildTasks_LabelsNotShared verifies each task gets its own label slice.
func TestBuildTasks_LabelsNotShared(t *testing.T) {
	labels := []string{"a"}
	tasks, err := BuildTasks("r", "1.0.0", "2.0.0", labels)
	require.NoError(t, err)

	tasks[0].Labels[0] = "changed"
	assert.Equal(t, "a", tasks[1].Labels[0])
	assert.Equal(t, "a", labels[0])
}

func TestBuildTasks_NoLabels(t *testing.T) {
	tasks, err := BuildTasks("r", "1.0.0", "2.0.0", nil)
	require.NoError(t, err)
	for _, task := range tasks {
		assert.Empty(t, task.Labels)
	}
}

func TestBuildTasks_Invalid(t *testing.T) {
	testCases := []struct {
		name               string
		dir, main, backend string
		errPart            string
	}{
		{"empty_dir", "", "1.0.0", "2.0.0", "result directory"},
		{"empty_main", "r", "", "2.0.0", "main version cannot be empty"},
		{"empty_backend", "r", "1.0.0", "", "backend version cannot be empty"},
		{"traversal_main", "r", "../1.0.0", "2.0.0", "main version"},
		{"separator_backend", "r", "1.0.0", "2/0", "backend version"},
		{"leading_dot", "r", ".1", "2.0.0", "main version"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tasks, err := BuildTasks(tc.dir, tc.main, tc.backend, nil)
			require.Error(t, err)
			assert.Nil(t, tasks)
			assert.Contains(t, err.Error(), tc.errPart)
		})
	}
}
