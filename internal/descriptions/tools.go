package descriptions

import "sort"

// Tool names exposed by the MCP server
const (
	ToolExtractBoxes = "pdf_extract_boxes"
	ToolExportBoxes  = "pdf_export_boxes"
	ToolValidateFile = "pdf_validate_file"
	ToolServerInfo   = "pdf_server_info"
)

// Comprehensive tool descriptions with practical examples and use cases

const (
	PDFExtractBoxesDescription = `Read the numbered boxes of a tax-style form and return the amount printed next to each box.

**When to use:** A PDF form prints small numeric box codes (for example 01501 to 02493) with an amount to the right of each one, and you need the value of every box.

**How it works:** Every word on a page is classified as a box code (five digits inside the configured range) or an amount (locale formatted, for example 17.772,60 or -1.000,00). Each code takes the nearest amount on its line that starts to its right. Pages are read in order and a box found on a later page overrides an earlier one.

**Result:** One row per code of the range in ascending order. Codes are zero padded strings; values are the amount text exactly as printed, or empty when no amount was found.

**Examples:**
• Full table: "Extract the boxes of modelo-303-2024.pdf"
• Partial range: "Extract boxes 1501 to 1600 of form.pdf" (range_start=1501, range_end=1600)
• English amounts: number_format="en" for forms printed as 1,234.56

**Best practices:** Validate the file first with pdf_validate_file. Scanned documents without positioned text return an empty table. Use only_matched=true to hide empty rows.`

	PDFExportBoxesDescription = `Extract the box table of a PDF form and write it to a spreadsheet, CSV or JSON file.

**When to use:** The table should be kept on disk or opened in a spreadsheet application.

**Formats:**
• xlsx: sheet with Casilla/Valor columns, amounts stored as numbers
• csv: two columns with the amount text exactly as printed
• json: array of {"code", "value"} objects

**Examples:**
• "Export the boxes of form.pdf to form-boxes.xlsx"
• "Write the boxes of form.pdf as CSV to boxes.csv"

**Best practices:** The format is inferred from the output extension when omitted. Output paths must be inside the configured directory.`

	PDFValidateFileDescription = `Verify that a PDF file can be read before extracting its boxes.

**When to use:** Before pdf_extract_boxes, especially for user uploads or unknown files.

**Checks:** existence, .pdf extension, size limit, document structure, encryption with the configured password, and whether any page carries positioned text.

**Best practices:** has_text=false means the document is most likely scanned; box extraction will find nothing.`

	PDFServerInfoDescription = `Get server configuration and extraction defaults.

**When to use:** At the start of a session to learn the configured directory, the default box range, tolerance and number format, and the available tools.

**Best practices:** Use the defaults reported here to decide whether per-request overrides are needed.`
)

// ToolDescriptions maps tool names to their comprehensive descriptions
var ToolDescriptions = map[string]string{
	ToolExtractBoxes: PDFExtractBoxesDescription,
	ToolExportBoxes:  PDFExportBoxesDescription,
	ToolValidateFile: PDFValidateFileDescription,
	ToolServerInfo:   PDFServerInfoDescription,
}

// GetToolDescription returns the comprehensive description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the available tool names in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
