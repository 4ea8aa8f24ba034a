package evidence

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Xombi17/blue-carbon-registry-mvp/internal/auth"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/apperr"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/policy"
	"github.com/Xombi17/blue-carbon-registry-mvp/pkg/storage"
)

func newTestService() Service {
	return NewService(storage.NewMockS3Client(), storage.NewIPFSClient(""), "evidence-test", zap.NewNop())
}

func communityActor() auth.Principal {
	return auth.Principal{ID: uuid.New(), Role: policy.RoleCommunity}
}

func jpegUpload(name, content string) Upload {
	return Upload{
		Filename: name,
		Mimetype: "image/jpeg",
		Size:     int64(len(content)),
		Body:     strings.NewReader(content),
	}
}

func TestUploadPinsAndStores(t *testing.T) {
	service := newTestService()

	files, err := service.Upload(context.Background(), communityActor(), []Upload{
		jpegUpload("mangrove_site.jpg", "fake image bytes"),
		jpegUpload("drone_pass.jpg", "more fake bytes"),
	})

	require.NoError(t, err)
	require.Len(t, files, 2)
	for _, f := range files {
		assert.True(t, strings.HasPrefix(f.IPFSHash, "Qm"))
		assert.Contains(t, f.URL, f.IPFSHash)
		assert.NotEmpty(t, f.OriginalName)
	}
}

func TestUploadRejectsObserver(t *testing.T) {
	service := newTestService()
	actor := auth.Principal{ID: uuid.New(), Role: policy.RoleObserver}

	_, err := service.Upload(context.Background(), actor, []Upload{jpegUpload("a.jpg", "x")})
	assert.True(t, apperr.HasCode(err, "UNAUTHORIZED"))
}

func TestUploadRejectsEmptyBatch(t *testing.T) {
	service := newTestService()

	_, err := service.Upload(context.Background(), communityActor(), nil)
	assert.True(t, apperr.HasCode(err, "VALIDATION_ERROR"))
}

func TestUploadRejectsTooManyFiles(t *testing.T) {
	service := newTestService()

	uploads := make([]Upload, MaxFiles+1)
	for i := range uploads {
		uploads[i] = jpegUpload("batch.jpg", "x")
	}
	_, err := service.Upload(context.Background(), communityActor(), uploads)
	assert.True(t, apperr.HasCode(err, "VALIDATION_ERROR"))
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	service := newTestService()

	up := jpegUpload("huge.jpg", "x")
	up.Size = MaxFileSize + 1
	_, err := service.Upload(context.Background(), communityActor(), []Upload{up})
	assert.True(t, apperr.HasCode(err, "VALIDATION_ERROR"))
}

func TestUploadRejectsDisallowedMimetype(t *testing.T) {
	service := newTestService()

	up := jpegUpload("script.sh", "rm -rf")
	up.Mimetype = "application/x-sh"
	_, err := service.Upload(context.Background(), communityActor(), []Upload{up})
	assert.True(t, apperr.HasCode(err, "VALIDATION_ERROR"))
}
