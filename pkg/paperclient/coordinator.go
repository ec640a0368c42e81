package paperclient

import (
	"context"
	"log/slog"
	"slices"

	domainerrors "github.com/paperdeckapp/paperdeck-server/internal/errors"
)

// PlaceholderTagID marks a tag created optimistically, before the
// server has assigned its real id. Mutations referencing it are
// rejected until a refetch delivers the real id.
const PlaceholderTagID = "tag-pending"

// PlaceholderListID marks a list created optimistically, before the
// server has assigned its real id.
const PlaceholderListID = "list-pending"

// Coordinator wraps each mutation so its effect is visible in the
// cache before the network round trip completes. Per mutation it
// cancels in-flight reads for the affected keys, snapshots them,
// writes a speculative value, performs the real write, then either
// invalidates the keys (success) or restores the exact snapshots
// (failure).
type Coordinator struct {
	cache  *Cache
	procs  Procedures
	userID string
	logger *slog.Logger
}

// NewCoordinator creates a coordinator acting as userID.
func NewCoordinator(cache *Cache, procs Procedures, userID string, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Coordinator{
		cache:  cache,
		procs:  procs,
		userID: userID,
		logger: logger,
	}
}

// snapshot captures one key's pre-mutation cache state so a failed
// write can restore it exactly. It is threaded explicitly from the
// pre-write phase into reconciliation.
type snapshot struct {
	key     Key
	value   any
	present bool
}

// begin runs the pre-write phase for the given keys: cancel any
// in-flight read, then capture the current value. After begin returns,
// the coordinator is the sole writer of those keys until it calls
// settle.
func (c *Coordinator) begin(keys ...Key) []snapshot {
	snaps := make([]snapshot, 0, len(keys))
	for _, key := range keys {
		c.cache.Cancel(key)
		value, present := c.cache.Get(key)
		snaps = append(snaps, snapshot{key: key, value: value, present: present})
	}
	return snaps
}

// settle reconciles after the write phase: on success every affected
// key is invalidated so the next read fetches authoritative data; on
// failure every key is restored to its snapshot and the error is
// returned unchanged.
func (c *Coordinator) settle(err error, snaps []snapshot) error {
	if err != nil {
		for _, s := range snaps {
			if s.present {
				c.cache.Set(s.key, s.value)
			} else {
				c.cache.Remove(s.key)
			}
		}
		c.logger.Debug("mutation rolled back", "error", err)
		return err
	}
	for _, s := range snaps {
		c.cache.Invalidate(s.key)
	}
	return nil
}

// UpsertLibraryEntry creates or updates the library entry for paperID.
// The speculative value merges wantToRead into the cached entry, or
// defaults to false on create, mirroring the server's upsert.
func (c *Coordinator) UpsertLibraryEntry(ctx context.Context, paperID int64, wantToRead *bool) error {
	if err := c.requirePaper(paperID); err != nil {
		return err
	}

	key := LibraryEntryKey(c.userID, paperID)
	snaps := c.begin(key)

	next := &LibraryEntry{PaperID: paperID}
	if prev, ok := snaps[0].value.(*LibraryEntry); ok && prev != nil {
		*next = *prev
	}
	if wantToRead != nil {
		next.WantToRead = *wantToRead
	}
	c.cache.Set(key, next)

	_, err := c.procs.UpsertLibraryEntry(ctx, c.userID, paperID, wantToRead)
	return c.settle(err, snaps)
}

// RemoveLibraryEntry deletes the library entry for paperID. The
// speculative value is a cached "known absent" (nil entry); a failed
// write restores the exact snapshot, which may reflect a concurrent
// change rather than the value this caller last saw.
func (c *Coordinator) RemoveLibraryEntry(ctx context.Context, paperID int64) error {
	if err := c.requirePaper(paperID); err != nil {
		return err
	}

	key := LibraryEntryKey(c.userID, paperID)
	snaps := c.begin(key)

	c.cache.Set(key, (*LibraryEntry)(nil))

	err := c.procs.RemoveLibraryEntry(ctx, c.userID, paperID)
	return c.settle(err, snaps)
}

// AddTagToPaper attaches an existing tag to a paper. name must match
// the tag's stored name; the server rejects otherwise.
func (c *Coordinator) AddTagToPaper(ctx context.Context, paperID int64, tagID, name string) error {
	if err := c.requirePaper(paperID); err != nil {
		return err
	}
	if err := requireTagID(tagID); err != nil {
		return err
	}

	key := TagsOnPaperKey(c.userID, paperID)
	snaps := c.begin(key)

	tags := cloneTags(snaps[0].value)
	if !slices.ContainsFunc(tags, func(t Tag) bool { return t.ID == tagID }) {
		tags = append(tags, Tag{ID: tagID, Name: name})
	}
	c.cache.Set(key, tags)

	err := c.procs.AddUserTagToPaper(ctx, c.userID, paperID, tagID, name)
	return c.settle(err, snaps)
}

// RemoveTagFromPaper detaches a tag from a paper.
func (c *Coordinator) RemoveTagFromPaper(ctx context.Context, paperID int64, tagID, name string) error {
	if err := c.requirePaper(paperID); err != nil {
		return err
	}
	if err := requireTagID(tagID); err != nil {
		return err
	}

	key := TagsOnPaperKey(c.userID, paperID)
	snaps := c.begin(key)

	tags := cloneTags(snaps[0].value)
	tags = slices.DeleteFunc(tags, func(t Tag) bool { return t.ID == tagID })
	c.cache.Set(key, tags)

	err := c.procs.RemoveUserTagOnPaper(ctx, c.userID, paperID, tagID, name)
	return c.settle(err, snaps)
}

// CreateTag creates a tag, optionally attaching it to a paper. The
// speculative tag carries PlaceholderTagID until reconciliation
// refetches the server-assigned id; the created tag is also returned
// directly so callers need not wait for the refetch.
func (c *Coordinator) CreateTag(ctx context.Context, name string, paperID int64) (*Tag, error) {
	if name == "" {
		return nil, domainerrors.Validation("tag name is required")
	}

	keys := []Key{UserTagsKey(c.userID)}
	if paperID > 0 {
		keys = append(keys, TagsOnPaperKey(c.userID, paperID))
	}
	snaps := c.begin(keys...)

	placeholder := Tag{ID: PlaceholderTagID, Name: name}
	for _, s := range snaps {
		c.cache.Set(s.key, append(cloneTags(s.value), placeholder))
	}

	tag, err := c.procs.CreateTag(ctx, c.userID, name, paperID)
	if err := c.settle(err, snaps); err != nil {
		return nil, err
	}
	return tag, nil
}

// DeleteTag deletes a tag and all its paper associations.
func (c *Coordinator) DeleteTag(ctx context.Context, tagID string) error {
	if err := requireTagID(tagID); err != nil {
		return err
	}

	key := UserTagsKey(c.userID)
	snaps := c.begin(key)

	tags := cloneTags(snaps[0].value)
	tags = slices.DeleteFunc(tags, func(t Tag) bool { return t.ID == tagID })
	c.cache.Set(key, tags)

	err := c.procs.DeleteTag(ctx, tagID)
	return c.settle(err, snaps)
}

// CreateList creates a list, optionally with a first paper. As with
// tags, the speculative record carries a placeholder id.
func (c *Coordinator) CreateList(ctx context.Context, name string, public bool, paperID int64) (*List, error) {
	if name == "" {
		return nil, domainerrors.Validation("list name is required")
	}

	keys := []Key{UserListsKey(c.userID)}
	if paperID > 0 {
		keys = append(keys, ListsWherePaperKey(c.userID, paperID))
	}
	snaps := c.begin(keys...)

	speculative := List{
		ID:      PlaceholderListID,
		OwnerID: c.userID,
		Name:    name,
		Public:  public,
	}
	if paperID > 0 {
		speculative.PaperIDs = []int64{paperID}
		speculative.EntryCount = 1
	}
	for _, s := range snaps {
		c.cache.Set(s.key, append(cloneLists(s.value), speculative))
	}

	list, err := c.procs.CreateList(ctx, name, public, paperID)
	if err := c.settle(err, snaps); err != nil {
		return nil, err
	}
	return list, nil
}

// DeleteList deletes a list the user owns.
func (c *Coordinator) DeleteList(ctx context.Context, listID string) error {
	if err := requireListID(listID); err != nil {
		return err
	}

	listKey := ListKey(listID)
	ownedKey := UserListsKey(c.userID)
	snaps := c.begin(listKey, ownedKey)

	c.cache.Set(listKey, (*List)(nil))
	owned := cloneLists(snaps[1].value)
	owned = slices.DeleteFunc(owned, func(l List) bool { return l.ID == listID })
	c.cache.Set(ownedKey, owned)

	err := c.procs.DeleteList(ctx, listID)
	return c.settle(err, snaps)
}

// AddPaperToList appends a paper to a list. The speculative update does
// not pre-check for duplicates; the server's conflict rejection simply
// rolls it back.
func (c *Coordinator) AddPaperToList(ctx context.Context, listID string, paperID int64) error {
	if err := requireListID(listID); err != nil {
		return err
	}
	if err := c.requirePaper(paperID); err != nil {
		return err
	}

	listKey := ListKey(listID)
	whereKey := ListsWherePaperKey(c.userID, paperID)
	snaps := c.begin(listKey, whereKey)

	var listRecord *List
	if cur, ok := snaps[0].value.(*List); ok && cur != nil {
		next := *cur
		next.PaperIDs = append(slices.Clone(cur.PaperIDs), paperID)
		next.EntryCount = len(next.PaperIDs)
		c.cache.Set(listKey, &next)
		listRecord = &next
	}

	// The full list record joins the "lists containing this paper"
	// result, when we have one to append.
	if listRecord != nil {
		where := cloneLists(snaps[1].value)
		if !slices.ContainsFunc(where, func(l List) bool { return l.ID == listID }) {
			where = append(where, *listRecord)
		}
		c.cache.Set(whereKey, where)
	}

	_, err := c.procs.AddPaperToList(ctx, listID, paperID)
	return c.settle(err, snaps)
}

// RemovePaperFromList removes a single paper from a list.
func (c *Coordinator) RemovePaperFromList(ctx context.Context, listID string, paperID int64) error {
	return c.removePapers(ctx, listID, []int64{paperID}, func(ctx context.Context) error {
		_, err := c.procs.RemoveSinglePaperFromList(ctx, listID, paperID)
		return err
	})
}

// RemovePapersFromList removes several papers from a list in one write.
func (c *Coordinator) RemovePapersFromList(ctx context.Context, listID string, paperIDs []int64) error {
	if len(paperIDs) == 0 {
		return domainerrors.Validation("paper ids are required")
	}
	return c.removePapers(ctx, listID, paperIDs, func(ctx context.Context) error {
		_, err := c.procs.RemoveMultiplePapersFromList(ctx, listID, paperIDs)
		return err
	})
}

func (c *Coordinator) removePapers(ctx context.Context, listID string, paperIDs []int64, write func(ctx context.Context) error) error {
	if err := requireListID(listID); err != nil {
		return err
	}
	for _, paperID := range paperIDs {
		if err := c.requirePaper(paperID); err != nil {
			return err
		}
	}

	// Dedupe so each where-key is snapshotted once; a repeated id would
	// otherwise snapshot its own speculative value and poison rollback.
	unique := make([]int64, 0, len(paperIDs))
	for _, paperID := range paperIDs {
		if !slices.Contains(unique, paperID) {
			unique = append(unique, paperID)
		}
	}

	listKey := ListKey(listID)
	snaps := c.begin(listKey)
	whereSnaps := make([]snapshot, 0, len(unique))

	if cur, ok := snaps[0].value.(*List); ok && cur != nil {
		next := *cur
		next.PaperIDs = slices.DeleteFunc(slices.Clone(cur.PaperIDs), func(id int64) bool {
			return slices.Contains(paperIDs, id)
		})
		next.EntryCount = len(next.PaperIDs)
		c.cache.Set(listKey, &next)
	}

	for _, paperID := range unique {
		whereKey := ListsWherePaperKey(c.userID, paperID)
		sub := c.begin(whereKey)
		whereSnaps = append(whereSnaps, sub[0])

		where := cloneLists(sub[0].value)
		where = slices.DeleteFunc(where, func(l List) bool { return l.ID == listID })
		c.cache.Set(whereKey, where)
	}

	err := write(ctx)
	return c.settle(err, append(snaps, whereSnaps...))
}

// ChangeListPrivacy flips a list between private and public.
func (c *Coordinator) ChangeListPrivacy(ctx context.Context, listID string, public bool) error {
	if err := requireListID(listID); err != nil {
		return err
	}

	listKey := ListKey(listID)
	ownedKey := UserListsKey(c.userID)
	snaps := c.begin(listKey, ownedKey)

	if cur, ok := snaps[0].value.(*List); ok && cur != nil {
		next := *cur
		next.Public = public
		c.cache.Set(listKey, &next)
	}
	owned := cloneLists(snaps[1].value)
	for i := range owned {
		if owned[i].ID == listID {
			owned[i].Public = public
		}
	}
	c.cache.Set(ownedKey, owned)

	_, err := c.procs.ChangeListPrivacy(ctx, listID, public)
	return c.settle(err, snaps)
}

func (c *Coordinator) requirePaper(paperID int64) error {
	if c.userID == "" {
		return domainerrors.Validation("user id is required")
	}
	if paperID <= 0 {
		return domainerrors.Validation("paper id is required")
	}
	return nil
}

// requireTagID rejects empty ids and the optimistic placeholder: a tag
// whose creation has not resolved has no server id to mutate against,
// so dependent mutations fail fast instead of queueing.
func requireTagID(tagID string) error {
	if tagID == "" {
		return domainerrors.Validation("tag id is required")
	}
	if tagID == PlaceholderTagID {
		return domainerrors.Validation("tag id not yet assigned")
	}
	return nil
}

func requireListID(listID string) error {
	if listID == "" {
		return domainerrors.Validation("list id is required")
	}
	if listID == PlaceholderListID {
		return domainerrors.Validation("list id not yet assigned")
	}
	return nil
}

func cloneTags(value any) []Tag {
	tags, _ := value.([]Tag)
	return slices.Clone(tags)
}

func cloneLists(value any) []List {
	lists, _ := value.([]List)
	return slices.Clone(lists)
}
