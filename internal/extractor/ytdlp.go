package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lrstanley/go-ytdlp"
	"go.uber.org/zap"

	"socialdl/internal/domain"
	"socialdl/internal/download"
)

// formats maps quality policies to yt-dlp format selectors
var formats = map[domain.QualityPolicy]string{
	domain.QualityBestOverall: "bestvideo*+bestaudio/best",
	domain.QualityBestVideo:   "bestvideo+bestaudio/bestvideo/best",
	domain.QualityMedium:      "bestvideo[height<=720]+bestaudio/best[height<=720]/best",
	domain.QualityAudioOnly:   "bestaudio/best",
}

// YtDlp runs yt-dlp into a shared downloads directory. Each request writes
// files with its own random prefix so concurrent downloads never collide.
type YtDlp struct {
	dir        string
	executable string
	logger     *zap.Logger
}

// NewYtDlp creates an extractor writing into dir. An empty executable uses PATH.
func NewYtDlp(dir, executable string, logger *zap.Logger) *YtDlp {
	return &YtDlp{dir: dir, executable: executable, logger: logger}
}

// command builds the yt-dlp invocation. Playlist links resolve to the single
// linked item; multi-item posts still yield every item.
func (y *YtDlp) command(prefix string, policy domain.QualityPolicy) *ytdlp.Command {
	format, ok := formats[policy]
	if !ok {
		format = formats[domain.QualityBestOverall]
	}

	dl := ytdlp.New().
		NoPlaylist().
		ForceOverwrites().
		RestrictFilenames().
		PrintJSON().
		Format(format).
		Output(filepath.Join(y.dir, prefix+"-%(autonumber)03d-%(id)s.%(ext)s"))
	if y.executable != "" {
		dl.SetExecutable(y.executable)
	}
	if policy != domain.QualityAudioOnly {
		dl.MergeOutputFormat("mp4")
	}
	return dl
}

// Extract implements download.Extractor
func (y *YtDlp) Extract(ctx context.Context, url string, policy domain.QualityPolicy) ([]download.ExtractedFile, error) {
	prefix := uuid.NewString()

	dl := y.command(prefix, policy)

	y.logger.Info("Starting extraction",
		zap.String("url", url),
		zap.String("policy", string(policy)),
		zap.String("prefix", prefix),
	)

	result, runErr := dl.Run(ctx, url)

	files, err := y.collect(prefix, titlesFrom(result))
	if err != nil {
		return nil, err
	}
	if runErr != nil {
		return files, fmt.Errorf("yt-dlp: %w", runErr)
	}

	y.logger.Info("Extraction finished", zap.String("url", url), zap.Int("files", len(files)))
	return files, nil
}

// titlesFrom indexes extracted titles by output file base name
func titlesFrom(result *ytdlp.Result) map[string]string {
	titles := make(map[string]string)
	if result == nil {
		return titles
	}

	infos, err := result.GetExtractedInfo()
	if err != nil {
		return titles
	}
	for _, info := range infos {
		if info == nil || info.Filename == nil || info.Title == nil {
			continue
		}
		titles[filepath.Base(*info.Filename)] = *info.Title
	}
	return titles
}

// collect finds every finished file written under prefix, in autonumber order
func (y *YtDlp) collect(prefix string, titles map[string]string) ([]download.ExtractedFile, error) {
	matches, err := filepath.Glob(filepath.Join(y.dir, prefix+"-*"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	var files []download.ExtractedFile
	for _, path := range matches {
		if isIntermediate(path) {
			if rmErr := os.Remove(path); rmErr != nil {
				y.logger.Warn("Failed to remove intermediate file", zap.String("path", path), zap.Error(rmErr))
			}
			continue
		}
		files = append(files, download.ExtractedFile{
			Path:  path,
			Title: titleFor(path, titles),
		})
	}
	return files, nil
}

func titleFor(path string, titles map[string]string) string {
	base := filepath.Base(path)
	if t, ok := titles[base]; ok {
		return t
	}
	// merged outputs change extension after the JSON was printed
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	for name, t := range titles {
		if strings.TrimSuffix(name, filepath.Ext(name)) == stem {
			return t
		}
	}
	return ""
}

func isIntermediate(path string) bool {
	switch filepath.Ext(path) {
	case ".part", ".ytdl", ".temp", ".tmp":
		return true
	}
	return strings.Contains(filepath.Base(path), ".part-Frag")
}
