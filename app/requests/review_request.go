package requests

// VoteRequest records one review decision.
type VoteRequest struct {
	Respondent string `json:"respondent" binding:"required"`
	ObjectKey  string `json:"object_key" binding:"required"`
	Decision   string `json:"decision" binding:"required"`
	Comment    string `json:"comment,omitempty"`
}

// RebuildBoardRequest rebuilds the review board from per-source reports.
type RebuildBoardRequest struct {
	// CSVPaths maps source IDs to their verdict report files.
	CSVPaths map[string]string `json:"csv_paths" binding:"required"`
}

// ExportBoardRequest writes the current board to a workbook.
type ExportBoardRequest struct {
	Path string `json:"path" binding:"required"`
}
