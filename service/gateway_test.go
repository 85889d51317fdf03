package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/WedtreeAutomation/PaySlip-Sender/model"
	"github.com/WedtreeAutomation/PaySlip-Sender/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"
)

var fastRetry = RetryPolicy{Attempts: 3}

func TestResolveOrCreateContainerIsIdempotent(t *testing.T) {
	backend := newFakeBackend()
	gw := NewGateway(backend, fastRetry, nil)
	ctx := context.Background()

	first, err := gw.ResolveOrCreateContainer(ctx, "drive", "March 2024")
	require.NoError(t, err)
	second, err := gw.ResolveOrCreateContainer(ctx, "drive", "March 2024")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "March 2024", first.Name)
	assert.Len(t, backend.named("drive", "March 2024"), 1)
	assert.Equal(t, 1, backend.calls["create_folder"])
}

func TestResolveOrCreateContainerRetriesCreate(t *testing.T) {
	backend := newFakeBackend()
	backend.failNext("create_folder", unavailable("create_folder"))
	gw := NewGateway(backend, fastRetry, nil)

	ref, err := gw.ResolveOrCreateContainer(context.Background(), "", "April 2024")
	require.NoError(t, err)
	assert.NotEmpty(t, ref.ID)
	assert.Equal(t, 2, backend.calls["create_folder"])
}

func TestUploadReplacingLeavesOneObject(t *testing.T) {
	backend := newFakeBackend()
	gw := NewGateway(backend, fastRetry, nil)
	ctx := context.Background()

	_, err := gw.UploadReplacing(ctx, "folder", "Payslip_1234_March2024.pdf", []byte("first"))
	require.NoError(t, err)
	res, err := gw.UploadReplacing(ctx, "folder", "Payslip_1234_March2024.pdf", []byte("second"))
	require.NoError(t, err)

	objs := backend.named("folder", "Payslip_1234_March2024.pdf")
	require.Len(t, objs, 1)
	assert.Equal(t, "second", string(objs[0].data))
	assert.Equal(t, DriveDownloadLink(res.RemoteID), res.Link)
	assert.Equal(t, 2, backend.calls["grant"])
}

func TestUploadReplacingTransientThenSuccess(t *testing.T) {
	backend := newFakeBackend()
	backend.failNext("create_file", unavailable("create_file"), unavailable("create_file"))
	m := metrics.New("test")
	gw := NewGateway(backend, fastRetry, m)

	res, err := gw.UploadReplacing(context.Background(), "folder", "a.pdf", []byte("x"))
	require.NoError(t, err)
	assert.NotEmpty(t, res.Link)
	assert.Equal(t, 3, backend.calls["create_file"])
	assert.Equal(t, float64(2), testutil.ToFloat64(m.RemoteRetries.WithLabelValues("create_file")))
}

func TestUploadReplacingGivesUpAfterCap(t *testing.T) {
	backend := newFakeBackend()
	backend.failNext("create_file",
		unavailable("create_file"), unavailable("create_file"), unavailable("create_file"), unavailable("create_file"))
	gw := NewGateway(backend, fastRetry, nil)

	_, err := gw.UploadReplacing(context.Background(), "folder", "a.pdf", []byte("x"))
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Equal(t, 3, backend.calls["create_file"])
}

func TestUploadReplacingNonTransientNotRetried(t *testing.T) {
	backend := newFakeBackend()
	backend.failNext("grant", forbidden("grant"))
	gw := NewGateway(backend, fastRetry, nil)

	_, err := gw.UploadReplacing(context.Background(), "folder", "a.pdf", []byte("x"))
	require.Error(t, err)
	assert.False(t, IsTransient(err))
	assert.Equal(t, 1, backend.calls["grant"])
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	backend := newFakeBackend()
	backend.failNext("list", unavailable("list"), unavailable("list"))
	gw := NewGateway(backend, RetryPolicy{Attempts: 3, Delay: time.Second}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gw.ListChildren(ctx, "")
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, backend.calls["list"])
}

func TestListChildrenOrdering(t *testing.T) {
	backend := newFakeBackend()
	backend.add("", "b.pdf", model.KindFile, nil)
	backend.add("", "Zeta", model.KindFolder, nil)
	backend.add("", "A.pdf", model.KindFile, nil)
	backend.add("", "alpha", model.KindFolder, nil)
	gw := NewGateway(backend, fastRetry, nil)

	items, err := gw.ListChildren(context.Background(), "")
	require.NoError(t, err)

	var names []string
	for _, it := range items {
		names = append(names, it.Name)
	}
	assert.Equal(t, []string{"alpha", "Zeta", "A.pdf", "b.pdf"}, names)
}

func TestDeleteObjectRemovesContents(t *testing.T) {
	backend := newFakeBackend()
	folder := backend.add("", "March 2024", model.KindFolder, nil)
	backend.add(folder, "a.pdf", model.KindFile, []byte("a"))
	gw := NewGateway(backend, fastRetry, nil)

	require.NoError(t, gw.DeleteObject(context.Background(), folder))
	assert.Empty(t, backend.objects)
}

func TestGatewayOverMemBlob(t *testing.T) {
	bucket := memblob.OpenBucket(nil)
	backend := NewBlobBackend(bucket, "https://files.example.test/payslips/")
	defer backend.Close()
	gw := NewGateway(backend, fastRetry, nil)
	ctx := context.Background()

	ref, err := gw.ResolveOrCreateContainer(ctx, "", "March 2024")
	require.NoError(t, err)
	assert.Equal(t, "March 2024/", ref.ID)

	again, err := gw.ResolveOrCreateContainer(ctx, "", "March 2024")
	require.NoError(t, err)
	assert.Equal(t, ref, again)

	_, err = gw.UploadReplacing(ctx, ref.ID, "Payslip_1_March2024.pdf", []byte("old"))
	require.NoError(t, err)
	res, err := gw.UploadReplacing(ctx, ref.ID, "Payslip_1_March2024.pdf", []byte("new"))
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.test/payslips/March%202024/Payslip_1_March2024.pdf", res.Link)

	root, err := gw.ListChildren(ctx, "")
	require.NoError(t, err)
	require.Len(t, root, 1)
	assert.True(t, root[0].IsFolder())

	children, err := gw.ListChildren(ctx, ref.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "Payslip_1_March2024.pdf", children[0].Name)

	var buf bytes.Buffer
	require.NoError(t, gw.Download(ctx, res.RemoteID, &buf))
	assert.Equal(t, "new", buf.String())

	require.NoError(t, gw.DeleteObject(ctx, ref.ID))
	root, err = gw.ListChildren(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, root)

	err = gw.Download(ctx, res.RemoteID, &buf)
	assert.True(t, errors.Is(err, ErrNotFound))
}
