package paperclient

import "fmt"

// Key identifies one cacheable read result: an operation name plus its
// canonical input parameters. Keys are derived deterministically so the
// mutation layer and the refetch layer always agree on which entry a
// given read populates.
type Key string

// LibraryEntryKey is the cache key for a single library entry lookup.
func LibraryEntryKey(userID string, paperID int64) Key {
	return Key(fmt.Sprintf("library.getEntry:%s:%d", userID, paperID))
}

// UserTagsKey is the cache key for a user's full tag set.
func UserTagsKey(userID string) Key {
	return Key("user.getUserTags:" + userID)
}

// TagsOnPaperKey is the cache key for the user's tags on one paper.
func TagsOnPaperKey(userID string, paperID int64) Key {
	return Key(fmt.Sprintf("paper.getUserTagsOnPaper:%s:%d", userID, paperID))
}

// ListKey is the cache key for a single list lookup.
func ListKey(listID string) Key {
	return Key("list.getList:" + listID)
}

// UserListsKey is the cache key for the user's owned lists.
func UserListsKey(userID string) Key {
	return Key("list.getUserLists:" + userID)
}

// ListsWherePaperKey is the cache key for the user's lists containing
// one paper.
func ListsWherePaperKey(userID string, paperID int64) Key {
	return Key(fmt.Sprintf("list.getUserListsWherePaper:%s:%d", userID, paperID))
}
