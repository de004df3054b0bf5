// Package ffmpeg wraps the two ffmpeg invocations the pipeline needs: audio
// extraction for the classifier and a single-frame thumbnail.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// stderrTailLines bounds how much ffmpeg output is carried into errors.
const stderrTailLines = 8

// AudioFormat describes the PCM output handed to the classifier.
type AudioFormat struct {
	Codec      string
	SampleRate int
	Channels   int
}

// DefaultAudioFormat is 16 kHz mono signed 16-bit PCM, the input YAMNet expects.
func DefaultAudioFormat() AudioFormat {
	return AudioFormat{Codec: "pcm_s16le", SampleRate: 16000, Channels: 1}
}

func (f AudioFormat) withDefaults() AudioFormat {
	def := DefaultAudioFormat()
	if strings.TrimSpace(f.Codec) == "" {
		f.Codec = def.Codec
	}
	if f.SampleRate <= 0 {
		f.SampleRate = def.SampleRate
	}
	if f.Channels <= 0 {
		f.Channels = def.Channels
	}
	return f
}

// ExtractAudio decodes the first audio stream of input into output.
func ExtractAudio(ctx context.Context, binary, input, output string, format AudioFormat) error {
	if input == "" || output == "" {
		return errors.New("ffmpeg extract audio: input and output are required")
	}
	format = format.withDefaults()
	args := []string{
		"-hide_banner", "-nostdin", "-y",
		"-i", input,
		"-vn",
		"-acodec", format.Codec,
		"-ac", strconv.Itoa(format.Channels),
		"-ar", strconv.Itoa(format.SampleRate),
		output,
	}
	if err := run(ctx, binary, args); err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w", err)
	}
	return requireOutput(output)
}

// Thumbnail grabs one frame at atSeconds and scales it to width x height.
func Thumbnail(ctx context.Context, binary, input, output string, atSeconds float64, width, height int) error {
	if input == "" || output == "" {
		return errors.New("ffmpeg thumbnail: input and output are required")
	}
	if atSeconds < 0 {
		atSeconds = 0
	}
	args := []string{
		"-hide_banner", "-nostdin", "-y",
		"-ss", strconv.FormatFloat(atSeconds, 'f', 3, 64),
		"-i", input,
		"-frames:v", "1",
	}
	if width > 0 && height > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:%d", width, height))
	}
	args = append(args, output)
	if err := run(ctx, binary, args); err != nil {
		return fmt.Errorf("ffmpeg thumbnail: %w", err)
	}
	return requireOutput(output)
}

func run(ctx context.Context, binary string, args []string) error {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if tail := tailLines(stderr.String(), stderrTailLines); tail != "" {
			return fmt.Errorf("%w: %s", err, tail)
		}
		return err
	}
	return nil
}

func requireOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("ffmpeg produced no output at %s: %w", filepath.Base(path), err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("ffmpeg produced an empty %s", filepath.Base(path))
	}
	return nil
}

func tailLines(text string, n int) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, " | "))
}
