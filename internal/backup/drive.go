package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	gdrive "google.golang.org/api/drive/v3"
	goption "google.golang.org/api/option"
)

// DriveUploader pushes snapshots into a Google Drive folder using a
// service account.
type DriveUploader struct {
	svc      *gdrive.Service
	folderID string
}

var _ Uploader = (*DriveUploader)(nil)

// NewDriveUploader builds the Drive client from either inline JSON
// credentials or a credentials file path.
func NewDriveUploader(ctx context.Context, folderID, credentialsFile, credentialsJSON string) (*DriveUploader, error) {
	if strings.TrimSpace(folderID) == "" {
		return nil, errors.New("missing Drive folder ID")
	}

	var creds []byte
	switch {
	case strings.TrimSpace(credentialsJSON) != "":
		creds = []byte(credentialsJSON)
	case strings.TrimSpace(credentialsFile) != "":
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		creds = data
	default:
		return nil, errors.New("missing Drive credentials (set DRIVE_CREDENTIALS_JSON or DRIVE_CREDENTIALS_FILE)")
	}

	svc, err := gdrive.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gdrive.DriveFileScope))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	slog.InfoContext(ctx, "Drive uploader ready", "folder_id", folderID)
	return &DriveUploader{svc: svc, folderID: folderID}, nil
}

func (u *DriveUploader) Upload(ctx context.Context, name string, data []byte) error {
	file := &gdrive.File{
		Name:     name,
		Parents:  []string{u.folderID},
		MimeType: "application/json",
	}

	_, err := u.svc.Files.Create(file).
		Context(ctx).
		Media(bytes.NewReader(data)).
		Do()
	if err != nil {
		return fmt.Errorf("create drive file: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot uploaded to Drive",
		"name", name,
		"folder_id", u.folderID,
		"size", len(data))
	return nil
}
