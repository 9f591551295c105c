// Package publish uploads the release archives to the download area.
package publish

import (
	"fmt"
	"path/filepath"

	"github.com/chromedevtools/releng/internal/models"
	"github.com/chromedevtools/releng/internal/validation"
)

// Archive names and summaries. The first %s is the main version, the second
// the backend version.
const (
	backendArchiveName    = "org.chromium.sdk-wipbackends-%s-%s.tar"
	backendArchiveSummary = "ChromeDevTools SDK %s WebKit protocol backends %s"

	libArchiveName    = "org.chromium.sdk-lib-%s.tar"
	libArchiveSummary = "ChromeDevTools SDK %s standalone library"

	siteArchiveName    = "chromedevtools-%s-wipbackends-%s-site.zip"
	siteArchiveSummary = "ChromeDevTools %s Eclipse update site with WebKit protocol backends %s"
)

// BuildTasks returns the three upload tasks of a release, in upload order:
// the backends archive, the SDK library archive and the update site.
// It does not touch the file system.
func BuildTasks(resultDir, mainVersion, backendVersion string, labels []string) ([]models.UploadTask, error) {
	if resultDir == "" {
		return nil, fmt.Errorf("result directory cannot be empty")
	}
	if err := validation.ValidateVersionComponent("main version", mainVersion); err != nil {
		return nil, err
	}
	if err := validation.ValidateVersionComponent("backend version", backendVersion); err != nil {
		return nil, err
	}

	task := func(name, summary string) (models.UploadTask, error) {
		path := filepath.Join(resultDir, name)
		if err := validation.ValidatePathInDirectory(path, resultDir); err != nil {
			return models.UploadTask{}, err
		}
		return models.UploadTask{
			Path:    path,
			Summary: summary,
			Labels:  append([]string(nil), labels...),
		}, nil
	}

	specs := []struct{ name, summary string }{
		{
			fmt.Sprintf(backendArchiveName, mainVersion, backendVersion),
			fmt.Sprintf(backendArchiveSummary, mainVersion, backendVersion),
		},
		{
			fmt.Sprintf(libArchiveName, mainVersion),
			fmt.Sprintf(libArchiveSummary, mainVersion),
		},
		{
			fmt.Sprintf(siteArchiveName, mainVersion, backendVersion),
			fmt.Sprintf(siteArchiveSummary, mainVersion, backendVersion),
		},
	}

	tasks := make([]models.UploadTask, 0, len(specs))
	for _, s := range specs {
		t, err := task(s.name, s.summary)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}
