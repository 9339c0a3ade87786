package github

import (
	"fmt"

	"github.com/ryo246912/gh-pr-code-metrics/internal/models"
)

// MockRepository implements repository information for testing
type MockRepository struct {
	Owner string
	Name  string
}

func (m *MockRepository) GetOwner() string {
	return m.Owner
}

func (m *MockRepository) GetName() string {
	return m.Name
}

// Helper functions for creating test data
func CreateTestFileRefs(owner, repo, ref string, count int) []models.FileRef {
	files := make([]models.FileRef, count)
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("module%d/src/main/java/org/example/Class%d.java", i+1, i+1)
		files[i] = models.FileRef{
			FileName: name,
			RawURL:   BuildRawURL(owner, repo, ref, name),
		}
	}
	return files
}

func CreateTestRecord(owner, repo string, prNumber, fileCount int) models.Record {
	record := models.Record{
		Owner:                  owner,
		Repo:                   repo,
		PRNumber:               prNumber,
		JavaFilesAnalyzedCount: fileCount,
		FilesToAnalyze:         CreateTestFileRefs(owner, repo, "975ff1f23d579ffc49fbc12a86def464254de4d9", fileCount),
		PMDViolations:          models.Violations{},
	}
	if fileCount > 0 {
		path := fmt.Sprintf("./pr_analysis_staging/%s/%s/%d/pmd_report_%d.xml", owner, repo, prNumber, prNumber)
		record.PMDReportPath = &path
	}
	return record
}
