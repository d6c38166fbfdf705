package metadata

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// ExifTool drives one exiftool process in -stay_open mode, so a batch pays
// the interpreter start-up cost only once.
type ExifTool struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Scanner

	mu      sync.Mutex
	lastErr string
}

// NewExifTool starts exiftool. bin may be empty to look it up on PATH.
func NewExifTool(bin string) (*ExifTool, error) {
	if bin == "" {
		bin = "exiftool"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}

	cmd := exec.Command(path, "-stay_open", "True", "-@", "-")
	logrus.WithField("args", cmd.Args).Debug("starting exiftool")

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start exiftool: %w", err)
	}

	et := newExifTool(cmd, stdin, stdout)
	go et.drainStderr(stderr)
	return et, nil
}

func newExifTool(cmd *exec.Cmd, stdin io.WriteCloser, stdout io.Reader) *ExifTool {
	et := &ExifTool{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewScanner(stdout),
	}
	et.stdout.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return et
}

func (et *ExifTool) drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		logrus.WithField("source", "exiftool").Debug(line)
		et.mu.Lock()
		et.lastErr = line
		et.mu.Unlock()
	}
}

func (et *ExifTool) takeLastErr() string {
	et.mu.Lock()
	defer et.mu.Unlock()
	msg := et.lastErr
	et.lastErr = ""
	return msg
}

// Execute sends one command and returns its stdout up to the {ready} marker.
// Each argument is written on its own line, so arguments must not contain
// newlines.
func (et *ExifTool) Execute(ctx context.Context, args ...string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	et.takeLastErr()

	// Nothing reaches exiftool unless every argument is valid.
	var cmd strings.Builder
	for _, arg := range args {
		if strings.ContainsAny(arg, "\r\n") {
			return "", fmt.Errorf("%w: %q contains a newline", ErrInvalidArgument, arg)
		}
		cmd.WriteString(arg)
		cmd.WriteByte('\n')
	}
	cmd.WriteString("-execute\n")
	if _, err := io.WriteString(et.stdin, cmd.String()); err != nil {
		return "", fmt.Errorf("write command: %w", err)
	}

	var out strings.Builder
	for et.stdout.Scan() {
		line := et.stdout.Text()
		if strings.HasPrefix(line, "{ready") {
			return out.String(), nil
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	if err := et.stdout.Err(); err != nil {
		return "", fmt.Errorf("read output: %w", err)
	}
	return "", fmt.Errorf("exiftool exited unexpectedly")
}

// ReadCaption implements Tagger.
func (et *ExifTool) ReadCaption(ctx context.Context, path string) (string, bool, error) {
	if err := regular(path); err != nil {
		return "", false, err
	}
	out, err := et.Execute(ctx, readArgs(path)...)
	if err != nil {
		return "", false, err
	}
	return parseCaption(out)
}

// WriteCaption implements Tagger. The value is passed through a temporary
// file because the argument stream cannot carry newlines.
func (et *ExifTool) WriteCaption(ctx context.Context, path, caption string) error {
	if err := regular(path); err != nil {
		return err
	}
	tmp, err := os.CreateTemp("", "gallerycaptions-*.txt")
	if err != nil {
		return fmt.Errorf("create caption file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(caption); err != nil {
		tmp.Close()
		return fmt.Errorf("write caption file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close caption file: %w", err)
	}

	out, err := et.Execute(ctx, writeArgs(path, tmp.Name())...)
	if err != nil {
		return err
	}
	if !updated(out) {
		msg := et.takeLastErr()
		if msg == "" {
			msg = strings.TrimSpace(out)
		}
		return fmt.Errorf("%w: %s", ErrWriteRejected, msg)
	}
	return nil
}

// Close shuts the exiftool process down.
func (et *ExifTool) Close() error {
	if _, err := fmt.Fprintln(et.stdin, "-stay_open"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(et.stdin, "False"); err != nil {
		return err
	}
	if err := et.stdin.Close(); err != nil {
		return err
	}
	if et.cmd == nil {
		return nil
	}
	return et.cmd.Wait()
}

// regular rejects directories, which exiftool would otherwise walk.
func regular(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrNotRegular, path)
	}
	return nil
}

func readArgs(path string) []string {
	return []string{
		"-json",
		"-charset", "iptc=UTF8",
		"-" + CaptionTag,
		path,
	}
}

func writeArgs(path, valueFile string) []string {
	return []string{
		"-overwrite_original_in_place",
		"-P",
		"-charset", "iptc=UTF8",
		"-codedcharacterset=utf8",
		"-" + CaptionTag + "<=" + valueFile,
		path,
	}
}

// parseCaption extracts the caption from exiftool's -json output.
func parseCaption(out string) (string, bool, error) {
	var docs []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(out), &docs); err != nil {
		return "", false, fmt.Errorf("parse exiftool output: %w", err)
	}
	if len(docs) == 0 {
		return "", false, fmt.Errorf("parse exiftool output: no result")
	}

	doc := docs[0]
	if raw, ok := doc["Error"]; ok {
		var msg string
		json.Unmarshal(raw, &msg)
		return "", false, fmt.Errorf("exiftool: %s", msg)
	}

	raw, ok := doc["Caption-Abstract"]
	if !ok {
		return "", false, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true, nil
	}
	// Numeric captions come back unquoted.
	return strings.TrimSpace(string(raw)), true, nil
}

var updatedRe = regexp.MustCompile(`(?m)^\s*1 image files (updated|unchanged)`)

func updated(out string) bool {
	return updatedRe.MatchString(out)
}
