package history

import (
	"sort"
	"strings"
	"time"

	"github.com/verifai/automcp/internal/model/history"
	"github.com/verifai/automcp/pkg/utils"
)

// Sort keys accepted by get_chats. A leading '-' on the order argument
// requests descending order; the default is "-lastModified".
const (
	OrderLastModified = "lastModified"
	OrderCreatedAt    = "createdAt"
	OrderTitle        = "title"

	DefaultOrder = "-" + OrderLastModified
)

// parseOrder splits an order argument into key and direction.
func parseOrder(order string) (key string, desc bool, err error) {
	if strings.TrimSpace(order) == "" {
		order = DefaultOrder
	}
	key = order
	if strings.HasPrefix(order, "-") {
		desc = true
		key = order[1:]
	}
	switch key {
	case OrderLastModified, OrderCreatedAt, OrderTitle:
		return key, desc, nil
	default:
		return "", false, &ValidationError{Msg: "invalid order '" + order + "': use lastModified, createdAt or title, optionally prefixed with '-'"}
	}
}

// sortChats orders chats in place: stable, multi-key, fully deterministic.
// The direction applies to the primary key only; tie-breaks are always
// ascending. Timestamp keys break ties on the other timestamp then uuid;
// title compares case-folded and breaks ties on lastModified then uuid.
func sortChats(chats []history.Chat, key string, desc bool) {
	sort.SliceStable(chats, func(i, j int) bool {
		a, b := &chats[i], &chats[j]

		var primary int
		switch key {
		case OrderTitle:
			primary = strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		case OrderCreatedAt:
			primary = compareInt64(a.CreatedAt, b.CreatedAt)
		default:
			primary = compareInt64(a.LastModified, b.LastModified)
		}
		if primary != 0 {
			if desc {
				return primary > 0
			}
			return primary < 0
		}

		switch key {
		case OrderTitle:
			if c := compareInt64(a.LastModified, b.LastModified); c != 0 {
				return c < 0
			}
		case OrderCreatedAt:
			if c := compareInt64(a.LastModified, b.LastModified); c != 0 {
				return c < 0
			}
		default:
			if c := compareInt64(a.CreatedAt, b.CreatedAt); c != 0 {
				return c < 0
			}
		}
		return a.UUID < b.UUID
	})
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// paginate returns the contiguous slice [offset, offset+limit) of items.
// A negative limit counts as zero, a negative offset as zero, and an
// out-of-range offset yields an empty page rather than an error.
func paginate[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// Search scopes.
const (
	ScopeTitles   = "titles"
	ScopeMessages = "messages"
	ScopeBoth     = "both"
)

// Accepted layouts for date_from/date_to, interpreted in local time.
const (
	layoutDay    = "2006-01-02"
	layoutMinute = "2006-01-02 15:04"
)

// parseDateBound converts a date argument to epoch-ms. Upper bounds are
// widened to the end of the stated precision window (end of day, or end of
// minute) so that "2024-01-31" includes the whole day.
func parseDateBound(value string, upper bool) (int64, error) {
	value = strings.TrimSpace(value)

	if ts, err := time.ParseInLocation(layoutDay, value, time.Local); err == nil {
		if upper {
			return ts.Add(24*time.Hour).UnixMilli() - 1, nil
		}
		return ts.UnixMilli(), nil
	}
	if ts, err := time.ParseInLocation(layoutMinute, value, time.Local); err == nil {
		if upper {
			return ts.Add(time.Minute).UnixMilli() - 1, nil
		}
		return ts.UnixMilli(), nil
	}
	return 0, &ValidationError{Msg: "invalid date '" + value + "': use YYYY-MM-DD or YYYY-MM-DD HH:MM"}
}

// inDateRange applies the inclusive overlap rule: a chat passes the lower
// bound if either timestamp is ≥ from, and the upper bound if either
// timestamp is ≤ to. A zero bound means unbounded.
func inDateRange(c *history.Chat, from, to int64) bool {
	if from > 0 && c.LastModified < from && c.CreatedAt < from {
		return false
	}
	if to > 0 && c.LastModified > to && c.CreatedAt > to {
		return false
	}
	return true
}

// matchChat evaluates one chat against a search. It returns whether the chat
// matches and, for message matches, a short snippet derived from the first
// matching message.
func matchChat(c *history.Chat, query, scope string) (matched bool, titleHit bool, snippet string) {
	if scope == ScopeTitles || scope == ScopeBoth {
		if utils.ContainsFold(c.Title, query) {
			matched = true
			titleHit = true
		}
	}
	if scope == ScopeMessages || scope == ScopeBoth {
		for i := range c.Messages {
			text := c.Messages[i].DisplayText()
			if text == "" || !utils.ContainsFold(text, query) {
				continue
			}
			matched = true
			if c.Messages[i].Textual() {
				snippet = utils.TruncateRunes(text, history.SnippetTextRunes)
			} else {
				// DisplayText already caps structured renderings.
				snippet = text
			}
			break
		}
	}
	return matched, titleHit, snippet
}
