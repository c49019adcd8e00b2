package fetch

type FeedEntry struct {
	EntryID   int64
	FeedID    int64
	YouTubeID string
}

type FeedReader interface {
	Unread() ([]FeedEntry, error)
	MarkRead(entryID int64) error
}
