package admin

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/DevS-25/Paperless/internal/documents"
	"github.com/DevS-25/Paperless/internal/workflow"
)

func TestExportStatisticsProducesWorkbook(t *testing.T) {
	stats := &Statistics{
		TotalUsers:     42,
		UsersPerRole:   map[string]int64{"STUDENT": 30, "MENTOR": 5},
		TotalDocuments: 17,
		Drafts:         3,
		InReview:       6,
		Approved:       7,
		Rejected:       1,
		PerStatus: []documents.StatusCount{
			{Status: workflow.StatusDraft, Count: 3},
			{Status: workflow.PendingStatus(workflow.RoleMentor), Count: 6},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, ExportStatistics(&buf, stats))

	file, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer file.Close()

	assert.ElementsMatch(t, []string{"Summary", "By Status"}, file.GetSheetList())

	total, err := file.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "42", total)

	status, err := file.GetCellValue("By Status", "A2")
	require.NoError(t, err)
	assert.Equal(t, "DRAFT", status)
}
