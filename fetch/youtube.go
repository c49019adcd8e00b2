package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ewintr.nl/sermonai/model"
	"golang.org/x/exp/slog"
	"google.golang.org/api/youtube/v3"
)

const listPageSize = 50

type Youtube struct {
	client *youtube.Service
	logger *slog.Logger
}

func NewYoutube(client *youtube.Service, logger *slog.Logger) *Youtube {
	return &Youtube{
		client: client,
		logger: logger,
	}
}

func (y *Youtube) FetchChannelInfo(ctx context.Context, channelURL string) (*ChannelInfo, error) {
	call := y.client.Channels.List([]string{"snippet"}).Context(ctx)

	kind, ref, err := parseChannelURL(channelURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, err)
	}
	switch kind {
	case channelRefID:
		call = call.Id(ref)
	case channelRefHandle:
		call = call.ForHandle(ref)
	case channelRefUsername:
		call = call.ForUsername(ref)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch channel info: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, channelURL)
	}

	item := resp.Items[0]

	return &ChannelInfo{
		ID:   model.ChannelID(item.Id),
		Name: item.Snippet.Title,
		URL:  "https://www.youtube.com/channel/" + item.Id,
	}, nil
}

// FetchChannelVideos lists a channel's uploads playlist in platform order,
// newest first, bounded by limit. Duration and view count are not part of
// the list view. Entries that fail to parse are skipped.
func (y *Youtube) FetchChannelVideos(ctx context.Context, channelURL string, limit int) ([]VideoInfo, error) {
	info, err := y.FetchChannelInfo(ctx, channelURL)
	if err != nil {
		return nil, err
	}

	chResp, err := y.client.Channels.List([]string{"contentDetails"}).Id(string(info.ID)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch uploads playlist: %w", err)
	}
	if len(chResp.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, channelURL)
	}
	uploads := chResp.Items[0].ContentDetails.RelatedPlaylists.Uploads

	videos := make([]VideoInfo, 0, limit)
	pageToken := ""
	for len(videos) < limit {
		pageSize := int64(listPageSize)
		if remaining := int64(limit - len(videos)); remaining < pageSize {
			pageSize = remaining
		}
		resp, err := y.client.PlaylistItems.List([]string{"snippet", "contentDetails"}).
			PlaylistId(uploads).
			MaxResults(pageSize).
			PageToken(pageToken).
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch channel videos: %w", err)
		}

		for _, item := range resp.Items {
			if item.ContentDetails == nil || item.ContentDetails.VideoId == "" {
				y.logger.Warn("skipping unparseable playlist entry", slog.String("channel", string(info.ID)))
				continue
			}
			video := VideoInfo{
				ID:        model.VideoID(item.ContentDetails.VideoId),
				ChannelID: info.ID,
			}
			if item.Snippet != nil {
				video.Title = item.Snippet.Title
				video.Description = item.Snippet.Description
				video.ThumbnailURL = thumbnailURL(item.Snippet.Thumbnails)
			}
			if item.ContentDetails.VideoPublishedAt != "" {
				if at, err := time.Parse(time.RFC3339, item.ContentDetails.VideoPublishedAt); err == nil {
					video.PublishedAt = at
				}
			}
			videos = append(videos, video)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return videos, nil
}

func (y *Youtube) FetchVideoInfo(ctx context.Context, id model.VideoID) (*VideoInfo, error) {
	resp, err := y.client.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
		Id(string(id)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video info: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrVideoUnavailable, id)
	}

	item := resp.Items[0]
	video := &VideoInfo{
		ID:            model.VideoID(item.Id),
		ChannelID:     model.ChannelID(item.Snippet.ChannelId),
		Title:         item.Snippet.Title,
		Description:   item.Snippet.Description,
		ThumbnailURL:  thumbnailURL(item.Snippet.Thumbnails),
		DurationKnown: true,
	}
	if item.ContentDetails != nil {
		video.Duration = parseISODuration(item.ContentDetails.Duration)
	}
	if item.Statistics != nil {
		video.ViewCount = int64(item.Statistics.ViewCount)
	}
	if at, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
		video.PublishedAt = at
	}

	return video, nil
}

type channelRef int

const (
	channelRefID channelRef = iota
	channelRefHandle
	channelRefUsername
)

// parseChannelURL accepts the common channel URL shapes
// (/channel/<id>, /@handle, /user/<name>, /c/<name>) with an optional
// trailing /videos, the canonical listing view.
func parseChannelURL(channelURL string) (channelRef, string, error) {
	u, err := url.Parse(channelURL)
	if err != nil {
		return 0, "", err
	}
	path := strings.Trim(u.Path, "/")
	path = strings.TrimSuffix(path, "/videos")
	path = strings.TrimSuffix(path, "/")

	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 1 && strings.HasPrefix(parts[0], "@"):
		return channelRefHandle, parts[0], nil
	case len(parts) == 2 && parts[0] == "channel":
		return channelRefID, parts[1], nil
	case len(parts) == 2 && parts[0] == "user":
		return channelRefUsername, parts[1], nil
	case len(parts) == 2 && parts[0] == "c":
		return channelRefHandle, "@" + parts[1], nil
	}

	return 0, "", fmt.Errorf("unrecognized channel url: %s", channelURL)
}

func parseISODuration(iso string) time.Duration {
	rest, ok := strings.CutPrefix(iso, "P")
	if !ok {
		return 0
	}

	var d time.Duration
	num := ""
	inTime := false
	for _, r := range rest {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
		case r == 'T':
			inTime = true
		default:
			n, err := strconv.Atoi(num)
			if err != nil {
				return 0
			}
			num = ""
			switch {
			case r == 'D':
				d += time.Duration(n) * 24 * time.Hour
			case r == 'H' && inTime:
				d += time.Duration(n) * time.Hour
			case r == 'M' && inTime:
				d += time.Duration(n) * time.Minute
			case r == 'S' && inTime:
				d += time.Duration(n) * time.Second
			}
		}
	}

	return d
}

func thumbnailURL(thumbs *youtube.ThumbnailDetails) string {
	if thumbs == nil {
		return ""
	}
	for _, t := range []*youtube.Thumbnail{thumbs.High, thumbs.Medium, thumbs.Default} {
		if t != nil && t.Url != "" {
			return t.Url
		}
	}

	return ""
}
