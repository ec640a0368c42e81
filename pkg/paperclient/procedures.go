package paperclient

import (
	"context"
	"strconv"
	"strings"

	domainerrors "github.com/paperdeckapp/paperdeck-server/internal/errors"
)

// Procedures is the set of server operations the cache layer consumes.
// Client implements it over HTTP; tests substitute fakes. Read
// procedures populate cache keys, mutation procedures are wrapped by
// the Coordinator.
type Procedures interface {
	GetLibraryEntry(ctx context.Context, userID string, paperID int64) (*LibraryEntry, error)
	UpsertLibraryEntry(ctx context.Context, userID string, paperID int64, wantToRead *bool) (*LibraryEntry, error)
	RemoveLibraryEntry(ctx context.Context, userID string, paperID int64) error

	GetUserTagsOnPaper(ctx context.Context, userID string, paperID int64) ([]Tag, error)
	AddUserTagToPaper(ctx context.Context, userID string, paperID int64, tagID, name string) error
	RemoveUserTagOnPaper(ctx context.Context, userID string, paperID int64, tagID, name string) error
	CreateTag(ctx context.Context, userID, name string, paperID int64) (*Tag, error)
	DeleteTag(ctx context.Context, tagID string) error
	GetUserTags(ctx context.Context, userID string) ([]Tag, error)

	GetList(ctx context.Context, listID string) (*List, error)
	GetUserLists(ctx context.Context) ([]List, error)
	GetUserListsWherePaper(ctx context.Context, paperID int64) ([]List, error)
	CreateList(ctx context.Context, name string, public bool, paperID int64) (*List, error)
	DeleteList(ctx context.Context, listID string) error
	AddPaperToList(ctx context.Context, listID string, paperID int64) (*List, error)
	RemoveSinglePaperFromList(ctx context.Context, listID string, paperID int64) (*List, error)
	RemoveMultiplePapersFromList(ctx context.Context, listID string, paperIDs []int64) (*List, error)
	ChangeListPrivacy(ctx context.Context, listID string, public bool) (*List, error)
}

// NewFetcher returns a FetchFunc resolving keys against procs, for
// wiring into a Cache. The key formats are the ones the Key
// constructors in this package produce.
func NewFetcher(procs Procedures, userID string) FetchFunc {
	return func(ctx context.Context, key Key) (any, error) {
		op, rest, _ := strings.Cut(string(key), ":")
		switch op {
		case "library.getEntry":
			_, paperID, err := splitUserPaper(rest)
			if err != nil {
				return nil, err
			}
			return procs.GetLibraryEntry(ctx, userID, paperID)
		case "user.getUserTags":
			return procs.GetUserTags(ctx, userID)
		case "paper.getUserTagsOnPaper":
			_, paperID, err := splitUserPaper(rest)
			if err != nil {
				return nil, err
			}
			return procs.GetUserTagsOnPaper(ctx, userID, paperID)
		case "list.getList":
			return procs.GetList(ctx, rest)
		case "list.getUserLists":
			return procs.GetUserLists(ctx)
		case "list.getUserListsWherePaper":
			_, paperID, err := splitUserPaper(rest)
			if err != nil {
				return nil, err
			}
			return procs.GetUserListsWherePaper(ctx, paperID)
		default:
			return nil, domainerrors.Validationf("unknown cache key %q", key)
		}
	}
}

func splitUserPaper(rest string) (string, int64, error) {
	user, paper, ok := strings.Cut(rest, ":")
	if !ok {
		return "", 0, domainerrors.Validationf("malformed cache key input %q", rest)
	}
	paperID, err := strconv.ParseInt(paper, 10, 64)
	if err != nil {
		return "", 0, domainerrors.Validationf("malformed paper id in cache key input %q", rest)
	}
	return user, paperID, nil
}
