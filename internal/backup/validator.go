package backup

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tlanger/edgebackup/internal/models"
)

// ValidationResult records the artifact sizes of a validated snapshot.
type ValidationResult struct {
	ArchiveBytes int
	TextBytes    int
}

// Validate performs the structural checks that gate persistence. It is a
// pure check: nothing downstream may run on a snapshot that fails here.
func Validate(snap *models.Snapshot) (ValidationResult, error) {
	res := ValidationResult{
		ArchiveBytes: len(snap.ArchiveBytes),
		TextBytes:    len(snap.TextBytes),
	}

	if len(snap.ArchiveBytes) == 0 {
		return res, &ValidationError{Kind: EmptyArtifact, Detail: "archive artifact is empty"}
	}
	if len(snap.TextBytes) == 0 {
		return res, &ValidationError{Kind: EmptyArtifact, Detail: "text artifact is empty"}
	}

	if err := checkArchive(snap.ArchiveBytes); err != nil {
		return res, &ValidationError{Kind: CorruptArchive, Detail: err.Error()}
	}

	// Cheap sanity check, not a parser: a real configuration dump contains
	// at least one set or delete directive.
	text := string(snap.TextBytes)
	if !strings.Contains(text, "set ") && !strings.Contains(text, "delete ") {
		return res, &ValidationError{
			Kind:   MissingConfigMarkers,
			Detail: "text artifact contains no configuration directives",
		}
	}

	return res, nil
}

// checkArchive confirms the archive opens as a gzip'd tar and that every
// entry header is readable. Contents are not inspected.
func checkArchive(data []byte) error {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("not a gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		_, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("unreadable tar entry: %w", err)
		}
	}
}
