package imports

import (
	"errors"
	"strings"
	"time"

	"FinSightSaaS/internal/statement"

	"github.com/lib/pq"
)

// Import job lifecycle states. A job is created pending, flips to
// processing before parsing starts, and ends in exactly one terminal
// state written atomically with the transaction commit.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Transaction sources for imported rows.
const (
	SourceDelimited = "imported_delimited"
	SourceDocument  = "imported_document"
)

var (
	ErrFileAlreadyUploaded = errors.New("statement file already uploaded")
	ErrUnsupportedFileType = errors.New("unsupported statement file type")
	ErrEmptyFile           = errors.New("uploaded file is empty")
)

// ImportJobRow is the list projection of an import job.
type ImportJobRow struct {
	ID           string     `json:"id"`
	Filename     string     `json:"filename"`
	FileType     string     `json:"file_type"`
	Status       string     `json:"status"`
	Total        int        `json:"total_transactions"`
	Processed    int        `json:"processed_transactions"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// kindForFilename maps an upload's extension to a parse kind and the
// source tag its transactions carry.
func kindForFilename(name string) (statement.Kind, string, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".csv"), strings.HasSuffix(lower, ".txt"):
		return statement.KindDelimited, SourceDelimited, nil
	case strings.HasSuffix(lower, ".pdf"):
		return statement.KindTabularDocument, SourceDocument, nil
	case strings.HasSuffix(lower, ".xlsx"), strings.HasSuffix(lower, ".xls"):
		return statement.KindSpreadsheet, SourceDelimited, nil
	default:
		return "", "", ErrUnsupportedFileType
	}
}

// userFriendlyUploadError converts internal/SQL/Go errors into messages
// that are safe for end users. It intentionally hides low-level details
// like pq/SQLSTATE codes.
func userFriendlyUploadError(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, ErrFileAlreadyUploaded) {
		return "This statement file was already uploaded earlier. Please upload a different file."
	}
	if errors.Is(err, ErrUnsupportedFileType) {
		return "This file type is not supported. Please upload a CSV, Excel or PDF statement."
	}
	if errors.Is(err, ErrEmptyFile) {
		return "The uploaded file is empty."
	}
	if errors.Is(err, statement.ErrNoHeaderFound) {
		return "Could not detect the transactions table in the statement. Please upload the original statement downloaded from your bank."
	}
	if errors.Is(err, statement.ErrNoRowsFound) {
		return "The uploaded statement does not contain any transaction rows."
	}
	if errors.Is(err, statement.ErrNoTransactionsFound) {
		return "No valid transactions were found in the uploaded statement."
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			if strings.Contains(pqErr.Constraint, "file_hash") {
				return "This statement file was already uploaded earlier. Please upload a different file."
			}
			return "A record with the same unique value already exists."
		case "23503":
			return "Some referenced data was not found (please refresh and try again)."
		default:
			return "Database error while processing the statement. Please try again."
		}
	}

	msg := err.Error()
	if strings.Contains(msg, "pq:") || strings.Contains(msg, "SQLSTATE") {
		return "Database error while processing the statement. Please try again."
	}
	return msg
}
