package history

import "github.com/google/uuid"

// MaxTitleRunes is the hard cap applied to chat titles; longer titles are
// truncated, not rejected.
const MaxTitleRunes = 512

// Document is the top-level shape of history.json and the unit of atomic
// persistence.
type Document struct {
	Folders []Folder `json:"folders"`
	Chats   []Chat   `json:"chats"`
}

// Folder groups chats by holding their identifiers. The references are weak:
// chat objects live in Document.Chats, a folder only carries UUIDs.
type Folder struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Chats        []string `json:"chats"`
	CreatedAt    int64    `json:"createdAt"`
	LastModified int64    `json:"lastModified"`
}

// Chat is one conversation thread.
type Chat struct {
	UUID             string    `json:"uuid"`
	Title            string    `json:"title"`
	CreatedAt        int64     `json:"createdAt"`
	LastModified     int64     `json:"lastModified"`
	Engine           string    `json:"engine,omitempty"`
	Model            string    `json:"model,omitempty"`
	DisableStreaming bool      `json:"disableStreaming"`
	Tools            []any     `json:"tools"`
	Locale           *string   `json:"locale"`
	DocRepo          *string   `json:"docrepo"`
	Messages         []Message `json:"messages"`
}

// NewFolder builds an empty folder with a fresh identifier. The name is
// expected to be normalized by the caller.
func NewFolder(name string, nowMillis int64) Folder {
	return Folder{
		ID:           uuid.NewString(),
		Name:         name,
		Chats:        []string{},
		CreatedAt:    nowMillis,
		LastModified: nowMillis,
	}
}

// FindChat returns the index of the chat with the given uuid, or -1.
func (d *Document) FindChat(id string) int {
	for i := range d.Chats {
		if d.Chats[i].UUID == id {
			return i
		}
	}
	return -1
}

// FindFolder returns the index of the folder with the given id, or -1.
func (d *Document) FindFolder(id string) int {
	for i := range d.Folders {
		if d.Folders[i].ID == id {
			return i
		}
	}
	return -1
}
