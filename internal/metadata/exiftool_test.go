package metadata

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCaption(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		out         string
		want        string
		wantPresent bool
		wantErr     bool
	}{
		{"present", `[{"SourceFile": "a.jpg", "Caption-Abstract": "Beach - Summer"}]`, "Beach - Summer", true, false},
		{"absent", `[{"SourceFile": "a.jpg"}]`, "", false, false},
		{"numeric", `[{"SourceFile": "a.jpg", "Caption-Abstract": 2009}]`, "2009", true, false},
		{"empty string", `[{"SourceFile": "a.jpg", "Caption-Abstract": ""}]`, "", true, false},
		{"tool error", `[{"SourceFile": "a.txt", "Error": "Unknown file type"}]`, "", false, true},
		{"garbage", `Error: File not found`, "", false, true},
		{"no documents", `[]`, "", false, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, present, err := parseCaption(tt.out)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantPresent, present)
		})
	}
}

func TestUpdated(t *testing.T) {
	t.Parallel()

	assert.True(t, updated("    1 image files updated\n"))
	assert.True(t, updated("    1 image files unchanged\n"))
	assert.False(t, updated("    0 image files updated\n    1 files weren't updated due to errors\n"))
}

func TestWriteArgsPreserveTimes(t *testing.T) {
	t.Parallel()

	args := writeArgs("a.jpg", "/tmp/value.txt")
	assert.Contains(t, args, "-P")
	assert.Contains(t, args, "-overwrite_original_in_place")
	assert.Contains(t, args, "-IPTC:Caption-Abstract<=/tmp/value.txt")
	assert.Equal(t, "a.jpg", args[len(args)-1])
}

func TestNewExifToolMissingBinary(t *testing.T) {
	t.Parallel()

	_, err := NewExifTool(filepath.Join(t.TempDir(), "no-such-exiftool"))
	assert.ErrorIs(t, err, ErrToolUnavailable)
}

func TestRegular(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "a.jpg")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	assert.NoError(t, regular(file))
	assert.ErrorIs(t, regular(dir), ErrNotRegular)
	assert.Error(t, regular(filepath.Join(dir, "missing.jpg")))
}

// pipeExifTool connects an ExifTool to an in-process stand-in that records
// each command it receives and answers with reply.
func pipeExifTool(t *testing.T, reply string) (*ExifTool, <-chan []string) {
	t.Helper()
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	cmds := make(chan []string, 8)

	go func() {
		defer outW.Close()
		sc := bufio.NewScanner(inR)
		var args []string
		for sc.Scan() {
			line := sc.Text()
			if line != "-execute" {
				args = append(args, line)
				continue
			}
			cmds <- args
			args = nil
			fmt.Fprint(outW, reply+"{ready}\n")
		}
	}()

	et := newExifTool(nil, inW, outR)
	t.Cleanup(func() { inW.Close() })
	return et, cmds
}

func TestExecuteRejectsNewlineBeforeWriting(t *testing.T) {
	t.Parallel()
	et, cmds := pipeExifTool(t, "")
	ctx := context.Background()

	_, err := et.Execute(ctx, "-json", "a\nb.jpg")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = et.Execute(ctx, "-json", "good.jpg")
	require.NoError(t, err)

	assert.Equal(t, []string{"-json", "good.jpg"}, <-cmds)
	assert.Empty(t, cmds)
}

func TestExecuteReturnsOutput(t *testing.T) {
	t.Parallel()
	et, cmds := pipeExifTool(t, "line one\nline two\n")

	out, err := et.Execute(context.Background(), "-ver")
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", out)
	assert.Equal(t, []string{"-ver"}, <-cmds)
}

func TestReadCaptionRejectsNewlinePath(t *testing.T) {
	t.Parallel()
	et, cmds := pipeExifTool(t, "[{}]\n")

	dir := t.TempDir()
	bad := filepath.Join(dir, "a\nb.jpg")
	require.NoError(t, os.WriteFile(bad, []byte("x"), 0o644))
	good := filepath.Join(dir, "good.jpg")
	require.NoError(t, os.WriteFile(good, []byte("x"), 0o644))

	_, _, err := et.ReadCaption(context.Background(), bad)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, _, err = et.ReadCaption(context.Background(), good)
	require.NoError(t, err)
	assert.Equal(t, readArgs(good), <-cmds)
}

// TestExifToolRoundTrip runs against a real exiftool when one is installed.
func TestExifToolRoundTrip(t *testing.T) {
	if _, err := exec.LookPath("exiftool"); err != nil {
		t.Skip("exiftool not installed")
	}

	path := filepath.Join(t.TempDir(), "photo.jpg")
	f, err := os.Create(path)
	require.NoError(t, err)
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.White)
	require.NoError(t, jpeg.Encode(f, img, nil))
	require.NoError(t, f.Close())

	stamp := time.Date(2010, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, stamp, stamp))

	et, err := NewExifTool("")
	require.NoError(t, err)
	defer et.Close()

	ctx := context.Background()
	_, present, err := et.ReadCaption(ctx, path)
	require.NoError(t, err)
	assert.False(t, present)

	caption := "Line one\nČerstvý sníh - 2009"
	require.NoError(t, et.WriteCaption(ctx, path, caption))

	got, present, err := et.ReadCaption(ctx, path)
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, caption, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(stamp))
}
