package storage

import (
	"context"
	"io"
)

type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
}

// ReportObjectName is where the JSON export of a finished interview lives.
func ReportObjectName(sessionID string) string {
	return "interviews/" + sessionID + "/report.json"
}
