// Package evidence handles raw file uploads: files land in S3 for archival
// and are pinned to IPFS so projects can reference them by content hash.
package evidence

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Xombi17/blue-carbon-registry-mvp/internal/auth"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/apperr"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/policy"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/storage"
)

const (
	MaxFiles    = 10
	MaxFileSize = 10 << 20 // 10 MB
)

// allowedMimetypes covers photos, drone footage stills and survey documents.
var allowedMimetypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"image/tiff":      true,
	"application/pdf": true,
	"video/mp4":       true,
}

type Upload struct {
	Filename string
	Mimetype string
	Size     int64
	Body     io.Reader
}

type UploadedFile struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	Mimetype     string `json:"mimetype"`
	Size         int64  `json:"size"`
	IPFSHash     string `json:"ipfs_hash"`
	URL          string `json:"url"`
}

type Service interface {
	Upload(ctx context.Context, actor auth.Principal, uploads []Upload) ([]UploadedFile, error)
}

type evidenceService struct {
	s3     storage.S3Client
	ipfs   storage.IPFSClient
	bucket string
	logger *zap.Logger
}

func NewService(s3 storage.S3Client, ipfs storage.IPFSClient, bucket string, logger *zap.Logger) Service {
	return &evidenceService{s3: s3, ipfs: ipfs, bucket: bucket, logger: logger}
}

func (s *evidenceService) Upload(ctx context.Context, actor auth.Principal, uploads []Upload) ([]UploadedFile, error) {
	if !policy.CanPerform(actor.Role, policy.OpEvidenceUpload) {
		return nil, apperr.Forbidden("UNAUTHORIZED", "You are not allowed to upload evidence")
	}
	if len(uploads) == 0 {
		return nil, apperr.Validation("VALIDATION_ERROR", "At least one file is required")
	}
	if len(uploads) > MaxFiles {
		return nil, apperr.Validation("VALIDATION_ERROR", fmt.Sprintf("At most %d files per upload", MaxFiles))
	}
	for _, up := range uploads {
		if up.Size > MaxFileSize {
			return nil, apperr.Validation("VALIDATION_ERROR",
				fmt.Sprintf("File %q exceeds the 10MB limit", up.Filename))
		}
		if !allowedMimetypes[up.Mimetype] {
			return nil, apperr.Validation("VALIDATION_ERROR",
				fmt.Sprintf("File type %q is not accepted as evidence", up.Mimetype))
		}
	}

	results := make([]UploadedFile, 0, len(uploads))
	for _, up := range uploads {
		stored := fmt.Sprintf("evidence_%d%s", time.Now().UnixMilli(), filepath.Ext(up.Filename))

		// S3 upload consumes the body, so pin a tee'd copy through IPFS.
		pipeR, pipeW := io.Pipe()
		tee := io.TeeReader(up.Body, pipeW)

		pinned := make(chan pinOutcome, 1)
		go func() {
			pin, err := s.ipfs.PinFile(ctx, pipeR, stored)
			pinned <- pinOutcome{pin: pin, err: err}
		}()

		if err := s.s3.Upload(ctx, s.bucket, storedKey(actor, stored), tee); err != nil {
			pipeW.CloseWithError(err)
			<-pinned
			return nil, apperr.Internal(err)
		}
		pipeW.Close()

		outcome := <-pinned
		if outcome.err != nil {
			return nil, apperr.Internal(outcome.err)
		}

		results = append(results, UploadedFile{
			Filename:     stored,
			OriginalName: up.Filename,
			Mimetype:     up.Mimetype,
			Size:         up.Size,
			IPFSHash:     outcome.pin.Hash,
			URL:          s.ipfs.GatewayURL(outcome.pin.Hash),
		})
	}

	s.logger.Info("evidence uploaded",
		zap.String("user_id", actor.ID.String()),
		zap.Int("count", len(results)))
	return results, nil
}

type pinOutcome struct {
	pin storage.PinResult
	err error
}

func storedKey(actor auth.Principal, filename string) string {
	return fmt.Sprintf("evidence/%s/%s", actor.ID, filename)
}
