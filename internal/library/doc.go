// Package library manages the per-video directories under the videos root.
//
// Each video lives in its own directory named by its id. info.json holds the
// video's metadata; the pipeline adds video.mp4, thumbnail.png, audio.wav,
// the classifier scores, and highlights.json next to it. Ids start with the
// creation date so a plain directory listing sorts chronologically.
package library
