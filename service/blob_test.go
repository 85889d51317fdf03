package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/WedtreeAutomation/PaySlip-Sender/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"
)

func TestBlobBackendShareLink(t *testing.T) {
	backend := NewBlobBackend(memblob.OpenBucket(nil), "https://cdn.example.test/")
	defer backend.Close()

	link, err := backend.ShareLink(context.Background(), "April 2024/Payslip_A#1_April2024.pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.test/April%202024/Payslip_A%231_April2024.pdf", link)
}

func TestBlobBackendListFilter(t *testing.T) {
	backend := NewBlobBackend(memblob.OpenBucket(nil), "")
	defer backend.Close()
	ctx := context.Background()

	folder, err := backend.CreateFolder(ctx, "", "May 2024")
	require.NoError(t, err)
	_, err = backend.CreateFolder(ctx, folder, "archive")
	require.NoError(t, err)
	_, err = backend.CreateFile(ctx, folder, "Payslip_1_May2024.pdf", pdfContentType, strings.NewReader("x"), 1)
	require.NoError(t, err)

	all, err := backend.List(ctx, folder, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	files, err := backend.List(ctx, folder, ListFilter{Kind: model.KindFile})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "Payslip_1_May2024.pdf", files[0].Name)

	named, err := backend.List(ctx, folder, ListFilter{Name: "archive"})
	require.NoError(t, err)
	require.Len(t, named, 1)
	assert.True(t, named[0].IsFolder())
	assert.Equal(t, "May 2024/archive/", named[0].ID)
}

func TestWrapBlobError(t *testing.T) {
	backend := NewBlobBackend(memblob.OpenBucket(nil), "")
	defer backend.Close()

	err := backend.Download(context.Background(), "missing.pdf", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, IsTransient(err))
	assert.Equal(t, gcerrors.NotFound, gcerrors.Code(err))
}

type brokenReader struct {
	sent bool
}

func (r *brokenReader) Read(p []byte) (int, error) {
	if r.sent {
		return 0, errors.New("upload stream reset")
	}
	r.sent = true
	return copy(p, "%PDF-1.4 partial"), nil
}

func TestBlobBackendCreateFileDiscardsPartialWrite(t *testing.T) {
	backend := NewBlobBackend(memblob.OpenBucket(nil), "")
	defer backend.Close()
	ctx := context.Background()

	_, err := backend.CreateFile(ctx, "June 2024/", "Payslip_9_June2024.pdf", pdfContentType, &brokenReader{}, 0)
	require.Error(t, err)

	exists, err := backend.bucket.Exists(ctx, "June 2024/Payslip_9_June2024.pdf")
	require.NoError(t, err)
	assert.False(t, exists)
}
