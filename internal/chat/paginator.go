package chat

// Cursor tracks backward pagination for one conversation. Page only ever
// increases; a conversation switch replaces the whole cursor. HasMore comes
// from the server's last-page signal; Loading guards against concurrent
// fetches for the same conversation.
type Cursor struct {
	Page    int
	HasMore bool
	Loading bool
}

// CanLoadMore reports whether a scroll-to-top event may trigger a backfill.
func (c Cursor) CanLoadMore() bool {
	return c.HasMore && !c.Loading
}
