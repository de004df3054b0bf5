package ffmpeg

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"highlighter/internal/testsupport"
)

// recordingScript writes its arguments to args.txt and creates the last
// argument as the output file.
func recordingScript(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")
	script := filepath.Join(dir, "ffmpeg")
	testsupport.WriteScript(t, script, `echo "$@" > "`+argsFile+`"
for last; do :; done
printf data > "$last"`)
	return script, argsFile
}

func TestExtractAudioArguments(t *testing.T) {
	script, argsFile := recordingScript(t)
	out := filepath.Join(t.TempDir(), "audio.wav")

	if err := ExtractAudio(context.Background(), script, "/in/video.mp4", out, AudioFormat{}); err != nil {
		t.Fatalf("ExtractAudio: %v", err)
	}
	args, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"-i /in/video.mp4", "-vn", "-acodec pcm_s16le", "-ac 1", "-ar 16000"} {
		if !strings.Contains(string(args), want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
}

func TestThumbnailArguments(t *testing.T) {
	script, argsFile := recordingScript(t)
	out := filepath.Join(t.TempDir(), "thumbnail.png")

	if err := Thumbnail(context.Background(), script, "/in/video.mp4", out, 24, 320, 240); err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	args, _ := os.ReadFile(argsFile)
	for _, want := range []string{"-ss 24.000", "-frames:v 1", "scale=320:240"} {
		if !strings.Contains(string(args), want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
}

func TestRunFailureIncludesStderrTail(t *testing.T) {
	script := filepath.Join(t.TempDir(), "ffmpeg")
	testsupport.WriteScript(t, script, `echo "Invalid data found when processing input" >&2; exit 1`)

	err := ExtractAudio(context.Background(), script, "/in/video.mp4", filepath.Join(t.TempDir(), "a.wav"), DefaultAudioFormat())
	if err == nil || !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestMissingOutputIsAnError(t *testing.T) {
	script := filepath.Join(t.TempDir(), "ffmpeg")
	testsupport.WriteScript(t, script, "exit 0")

	if err := Thumbnail(context.Background(), script, "/in/video.mp4", filepath.Join(t.TempDir(), "t.png"), 1, 0, 0); err == nil {
		t.Fatal("expected error when ffmpeg writes nothing")
	}
}

func TestTailLines(t *testing.T) {
	text := "a\nb\nc\nd\n"
	if got := tailLines(text, 2); got != "c | d" {
		t.Fatalf("tailLines = %q", got)
	}
}
