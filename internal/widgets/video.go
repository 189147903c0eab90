package widgets

import (
	"context"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"

	"github.com/abhisek/coursekit/internal/store"
	"github.com/abhisek/coursekit/internal/view"
)

// Video placeholder defaults.
const (
	DefaultVideoDuration = "8–12 min"
	DefaultVideoTitle    = "Topic Video"
	VideoComingSoon      = "🎬 Video Coming Soon — Instructor will add before class"
)

var youtubeID = regexp.MustCompile(`(?:v=|youtu\.be/)([A-Za-z0-9_-]{11})`)

// ExtractYouTubeID returns the 11-character video id in url.
func ExtractYouTubeID(url string) (string, bool) {
	m := youtubeID.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// EmbedURL returns the privacy-friendly embed URL for a video id.
func EmbedURL(id string) string {
	return fmt.Sprintf("https://www.youtube.com/embed/%s?rel=0&modestbranding=1", id)
}

// WatchURL returns the regular watch URL for a video id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// VideoKey returns the KV key holding a container's saved video URL.
func VideoKey(containerID string) string {
	return "ea_video_" + containerID
}

// VideoEmbed is the content of a container showing a video.
type VideoEmbed struct {
	VideoID  string
	EmbedURL string
	WatchURL string
}

// VideoPlaceholder is the content of a container with no video yet.
type VideoPlaceholder struct {
	Title    string
	Duration string
	Hint     string
	Notice   string
}

// Videos manages per-topic video slots.
type Videos struct {
	kv     store.KV
	board  *view.Board
	logger *log.Logger
}

// NewVideos returns Videos. logger may be nil.
func NewVideos(kv store.KV, b *view.Board, logger *log.Logger) *Videos {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Videos{kv: kv, board: b, logger: logger}
}

// LoadYouTube shows the video from url in the container. It does nothing
// when the container is missing or url has no video id.
func (v *Videos) LoadYouTube(containerID, url string) bool {
	el, ok := v.board.Lookup(containerID)
	if !ok {
		return false
	}
	id, ok := ExtractYouTubeID(url)
	if !ok {
		return false
	}
	el.SetContent(VideoEmbed{VideoID: id, EmbedURL: EmbedURL(id), WatchURL: WatchURL(id)})
	return true
}

// RenderPlaceholder shows the "coming soon" card.
func (v *Videos) RenderPlaceholder(containerID, duration, title string) {
	el, ok := v.board.Lookup(containerID)
	if !ok {
		return
	}
	if duration == "" {
		duration = DefaultVideoDuration
	}
	if title == "" {
		title = DefaultVideoTitle
	}
	el.SetContent(VideoPlaceholder{
		Title:    title,
		Duration: duration,
		Hint:     fmt.Sprintf("Duration: %s • Add a YouTube link", duration),
		Notice:   VideoComingSoon,
	})
}

// PromptURL accepts a URL entered by the user. Only YouTube links are
// taken; they are shown and remembered for the container.
func (v *Videos) PromptURL(ctx context.Context, containerID, url string) bool {
	url = strings.TrimSpace(url)
	if url == "" || !strings.Contains(url, "youtu") {
		return false
	}
	v.LoadYouTube(containerID, url)
	if err := v.kv.Set(ctx, VideoKey(containerID), url); err != nil {
		v.logger.Printf("widgets: save video url: %v", err)
	}
	return true
}

// Init shows the saved video, or the placeholder.
func (v *Videos) Init(ctx context.Context, containerID, duration, title string) {
	saved, ok, err := v.kv.Get(ctx, VideoKey(containerID))
	if err != nil {
		v.logger.Printf("widgets: read video url: %v", err)
	}
	if ok && saved != "" {
		v.LoadYouTube(containerID, saved)
		return
	}
	v.RenderPlaceholder(containerID, duration, title)
}
