// Package ingestion implements the first pipeline stage: it places the source
// video at video.mp4 inside the job's library directory. Links are fetched
// with yt-dlp. Local files are copied, and uploads staged under the uploads
// directory are moved.
package ingestion
