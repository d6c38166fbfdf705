package metadata

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/gallerycaptions/internal/caption"
	"github.com/rcliao/gallerycaptions/internal/metadata/metadatatest"
	"github.com/rcliao/gallerycaptions/internal/model"
)

var oldTime = time.Date(2009, 7, 4, 12, 0, 0, 0, time.UTC)

func newImage(t *testing.T, root, rel string) string {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte("not really a jpeg"), 0o644))
	require.NoError(t, os.Chtimes(full, oldTime, oldTime))
	return full
}

func TestApplyNewCaption(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	full := newImage(t, root, "holidays/photo.jpg")
	tagger := metadatatest.New()

	w := NewWriter(tagger, WriterOptions{Root: root})
	out, err := w.Apply(context.Background(), filepath.Join("holidays", "photo.jpg"), "A sunset")
	require.NoError(t, err)

	assert.Equal(t, model.StatusWritten, out.Status)
	assert.Equal(t, "A sunset", out.Caption)
	assert.False(t, out.HadPrevious)

	got, ok := tagger.Caption(full)
	assert.True(t, ok)
	assert.Equal(t, "A sunset", got)
}

func TestApplyPreservesTimestamps(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	full := newImage(t, root, "photo.jpg")

	w := NewWriter(metadatatest.New(), WriterOptions{Root: root})
	_, err := w.Apply(context.Background(), "photo.jpg", "A sunset")
	require.NoError(t, err)

	info, err := os.Stat(full)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(oldTime), "mtime changed to %v", info.ModTime())
	assert.True(t, accessTime(info).Equal(oldTime) || accessTime(info).Equal(info.ModTime()))
}

func TestApplyAppendsToExisting(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	full := newImage(t, root, "photo.jpg")
	tagger := metadatatest.New()
	tagger.Set(full, "old")

	w := NewWriter(tagger, WriterOptions{Root: root})
	out, err := w.Apply(context.Background(), "photo.jpg", "new")
	require.NoError(t, err)
	assert.Equal(t, "old - new", out.Caption)
	assert.Equal(t, "old", out.Previous)
	assert.True(t, out.HadPrevious)
}

func TestApplyRerunBehaviour(t *testing.T) {
	t.Parallel()

	t.Run("append repeats the caption", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		full := newImage(t, root, "photo.jpg")
		tagger := metadatatest.New()
		w := NewWriter(tagger, WriterOptions{Root: root, Policy: caption.PolicyAppend})

		for i := 0; i < 2; i++ {
			_, err := w.Apply(context.Background(), "photo.jpg", "old")
			require.NoError(t, err)
		}
		got, _ := tagger.Caption(full)
		assert.Equal(t, "old - old", got)
	})

	t.Run("dedupe leaves the file alone", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		full := newImage(t, root, "photo.jpg")
		tagger := metadatatest.New()
		w := NewWriter(tagger, WriterOptions{Root: root, Policy: caption.PolicyDedupe})

		_, err := w.Apply(context.Background(), "photo.jpg", "old")
		require.NoError(t, err)
		out, err := w.Apply(context.Background(), "photo.jpg", "old")
		require.NoError(t, err)

		assert.Equal(t, model.StatusUnchanged, out.Status)
		got, _ := tagger.Caption(full)
		assert.Equal(t, "old", got)
		assert.Len(t, tagger.Writes, 1)
	})
}

func TestApplySkips(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	newImage(t, root, "photo.jpg")
	require.NoError(t, os.Mkdir(filepath.Join(root, "album"), 0o755))
	tagger := metadatatest.New()
	w := NewWriter(tagger, WriterOptions{Root: root})

	out, err := w.Apply(context.Background(), "nope.jpg", "caption")
	require.NoError(t, err)
	assert.Equal(t, model.StatusMissing, out.Status)

	out, err = w.Apply(context.Background(), "album", "caption")
	require.NoError(t, err)
	assert.Equal(t, model.StatusMissing, out.Status)

	out, err = w.Apply(context.Background(), "photo.jpg", "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusEmpty, out.Status)

	assert.Empty(t, tagger.Writes)
}

func TestApplyDryRun(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	full := newImage(t, root, "photo.jpg")
	tagger := metadatatest.New()
	tagger.Set(full, "old")

	w := NewWriter(tagger, WriterOptions{Root: root, DryRun: true})
	out, err := w.Apply(context.Background(), "photo.jpg", "new")
	require.NoError(t, err)

	assert.Equal(t, model.StatusDryRun, out.Status)
	assert.Equal(t, "old - new", out.Caption)
	assert.Empty(t, tagger.Writes)
}

func TestApplyFailureIsContained(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	full := newImage(t, root, "photo.jpg")
	tagger := metadatatest.New()
	tagger.FailOn(full)

	w := NewWriter(tagger, WriterOptions{Root: root})
	out, err := w.Apply(context.Background(), "photo.jpg", "new")
	require.Error(t, err)
	assert.ErrorIs(t, err, metadatatest.ErrInjected)
	assert.Equal(t, model.StatusFailed, out.Status)
	assert.Contains(t, err.Error(), "photo.jpg")
}
