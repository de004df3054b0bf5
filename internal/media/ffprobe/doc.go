// Package ffprobe runs ffprobe against a video and decodes the container and
// stream metadata the probe stage stores in info.json.
package ffprobe
