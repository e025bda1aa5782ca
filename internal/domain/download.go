package domain

import "time"

// MaxDocumentSize is the absolute ceiling for anything sent to Telegram (2 GiB)
const MaxDocumentSize int64 = 2 * 1024 * 1024 * 1024

// DownloadStatus is the status of a single download log entry
type DownloadStatus string

const (
	DownloadStatusPending   DownloadStatus = "pending"
	DownloadStatusCompleted DownloadStatus = "completed"
	DownloadStatusAlbum     DownloadStatus = "album"
	DownloadStatusTooLarge  DownloadStatus = "too_large"
	DownloadStatusFailed    DownloadStatus = "failed"
	DownloadStatusFileSent  DownloadStatus = "file_sent"
)

// DownloadLogEntry is one immutable row of the download log
type DownloadLogEntry struct {
	ID             int64
	UserID         int64
	TelegramUserID int64
	Platform       Platform
	URL            string
	Status         DownloadStatus
	FilePath       *string
	FileSize       *int64
	ErrorMessage   *string
	CreatedAt      time.Time
}

// QualityPolicy names a preset telling the extractor how to pick encodings
type QualityPolicy string

const (
	QualityBestOverall QualityPolicy = "best_overall"
	QualityBestVideo   QualityPolicy = "best_video"
	QualityMedium      QualityPolicy = "medium"
	QualityAudioOnly   QualityPolicy = "audio_only"
)

// ParseQualityPolicy returns the named policy, falling back to best_overall
func ParseQualityPolicy(name string) QualityPolicy {
	switch QualityPolicy(name) {
	case QualityBestVideo, QualityMedium, QualityAudioOnly:
		return QualityPolicy(name)
	default:
		return QualityBestOverall
	}
}

// MediaKind tells how a downloaded file may be sent inline
type MediaKind string

const (
	MediaVideo    MediaKind = "video"
	MediaAudio    MediaKind = "audio"
	MediaImage    MediaKind = "image"
	MediaDocument MediaKind = "document"
)

// MediaFile describes one downloaded file on local storage
type MediaFile struct {
	Path  string
	Size  int64
	Kind  MediaKind
	Title string
}

// DownloadResult is the outcome of a fetch: SingleResult, AlbumResult,
// TooLargeResult or FailureResult.
type DownloadResult interface {
	// Files returns every local file referenced by the result
	Files() []MediaFile
	isDownloadResult()
}

// SingleResult is a download that produced exactly one file
type SingleResult struct {
	File MediaFile
}

// AlbumResult is a download that produced several files, in source order.
// Oversized holds items above MaxDocumentSize that will not be sent.
type AlbumResult struct {
	Items     []MediaFile
	Oversized []MediaFile
}

// TooLargeResult is a download whose files all exceed MaxDocumentSize
type TooLargeResult struct {
	Items []MediaFile
}

// FailureResult is a download that produced nothing usable
type FailureResult struct {
	Message string
}

func (r SingleResult) Files() []MediaFile { return []MediaFile{r.File} }

func (r AlbumResult) Files() []MediaFile {
	files := make([]MediaFile, 0, len(r.Items)+len(r.Oversized))
	files = append(files, r.Items...)
	return append(files, r.Oversized...)
}

func (r TooLargeResult) Files() []MediaFile { return r.Items }

func (r FailureResult) Files() []MediaFile { return nil }

func (SingleResult) isDownloadResult()   {}
func (AlbumResult) isDownloadResult()    {}
func (TooLargeResult) isDownloadResult() {}
func (FailureResult) isDownloadResult()  {}

// Paths returns the local paths referenced by a result
func Paths(r DownloadResult) []string {
	files := r.Files()
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	return paths
}

// TotalSize returns the summed size of the files referenced by a result
func TotalSize(r DownloadResult) int64 {
	var total int64
	for _, f := range r.Files() {
		total += f.Size
	}
	return total
}
