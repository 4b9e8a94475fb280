package descriptions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetToolDescription(t *testing.T) {
	for _, name := range []string{ToolExtractBoxes, ToolExportBoxes, ToolValidateFile, ToolServerInfo} {
		t.Run(name, func(t *testing.T) {
			assert.NotEqual(t, "Tool description not available", GetToolDescription(name))
		})
	}
	assert.Equal(t, "Tool description not available", GetToolDescription("pdf_read_file"))
}

func TestGetAllToolNames(t *testing.T) {
	assert.Equal(t, []string{
		"pdf_export_boxes",
		"pdf_extract_boxes",
		"pdf_server_info",
		"pdf_validate_file",
	}, GetAllToolNames())
}
