package history

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/verifai/automcp/internal/model/history"
	"github.com/verifai/automcp/internal/store"
	"github.com/verifai/automcp/internal/timeutil"
	"github.com/verifai/automcp/pkg/utils"
)

var (
	ErrChatNotFound   = errors.New("no chat matches the given uuid")
	ErrFolderNotFound = errors.New("no folder matches the given id")
)

// ValidationError reports a missing or invalid input field.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Service implements the history.json operations: folder and chat listings,
// deterministic chat queries, full-text search, and two-phase folder/chat
// creation. Reads always hit the store fresh.
type Service struct {
	store *store.Store
	clock *timeutil.Clock
}

// NewService binds the history operations to a document store and the
// process-local monotonic clock.
func NewService(st *store.Store, clock *timeutil.Clock) *Service {
	return &Service{store: st, clock: clock}
}

// Folders returns all folders from history.json.
func (s *Service) Folders() ([]history.Folder, error) {
	doc, err := s.store.LoadHistory()
	if err != nil {
		return nil, err
	}
	return doc.Folders, nil
}

// ChatsQuery carries get_chats arguments.
type ChatsQuery struct {
	FolderID string
	Limit    int
	Offset   int
	Order    string
}

// Chats returns one page of chats plus the total count after filtering.
func (s *Service) Chats(q ChatsQuery) ([]history.Chat, int, error) {
	key, desc, err := parseOrder(q.Order)
	if err != nil {
		return nil, 0, err
	}

	doc, err := s.store.LoadHistory()
	if err != nil {
		return nil, 0, err
	}

	chats := doc.Chats
	if strings.TrimSpace(q.FolderID) != "" {
		idx := doc.FindFolder(q.FolderID)
		if idx < 0 {
			return nil, 0, ErrFolderNotFound
		}
		member := make(map[string]bool, len(doc.Folders[idx].Chats))
		for _, id := range doc.Folders[idx].Chats {
			member[id] = true
		}
		filtered := make([]history.Chat, 0, len(member))
		for i := range chats {
			if member[chats[i].UUID] {
				filtered = append(filtered, chats[i])
			}
		}
		chats = filtered
	} else {
		chats = append([]history.Chat(nil), chats...)
	}

	sortChats(chats, key, desc)
	return paginate(chats, q.Offset, q.Limit), len(chats), nil
}

// Chat returns a single chat by uuid.
func (s *Service) Chat(id string) (history.Chat, error) {
	if strings.TrimSpace(id) == "" {
		return history.Chat{}, &ValidationError{Msg: "uuid is required"}
	}
	doc, err := s.store.LoadHistory()
	if err != nil {
		return history.Chat{}, err
	}
	idx := doc.FindChat(id)
	if idx < 0 {
		return history.Chat{}, ErrChatNotFound
	}
	return doc.Chats[idx], nil
}

// Messages returns one page of a chat's messages plus the total count.
func (s *Service) Messages(id string, offset, limit int) ([]history.Message, int, error) {
	chat, err := s.Chat(id)
	if err != nil {
		return nil, 0, err
	}
	return paginate(chat.Messages, offset, limit), len(chat.Messages), nil
}

// SearchQuery carries search_history arguments.
type SearchQuery struct {
	Query    string
	Scope    string
	DateFrom string
	DateTo   string
	Engine   string
	Model    string
	Limit    int
	Offset   int
}

// SearchHit is one matching chat with match provenance.
type SearchHit struct {
	Chat     history.Chat
	TitleHit bool
	Snippet  string
}

// Search scans chats linearly for case-insensitive substring matches within
// the requested scope, applying engine/model equality and the inclusive
// date-overlap rule, then paginates. Results follow the default chat order
// so repeated runs are identical.
func (s *Service) Search(q SearchQuery) ([]SearchHit, int, error) {
	query := strings.TrimSpace(q.Query)
	if query == "" {
		return nil, 0, &ValidationError{Msg: "query is required"}
	}

	scope := q.Scope
	if scope == "" {
		scope = ScopeBoth
	}
	switch scope {
	case ScopeTitles, ScopeMessages, ScopeBoth:
	default:
		return nil, 0, &ValidationError{Msg: "invalid in '" + q.Scope + "': use titles, messages or both"}
	}

	var from, to int64
	var err error
	if strings.TrimSpace(q.DateFrom) != "" {
		if from, err = parseDateBound(q.DateFrom, false); err != nil {
			return nil, 0, err
		}
	}
	if strings.TrimSpace(q.DateTo) != "" {
		if to, err = parseDateBound(q.DateTo, true); err != nil {
			return nil, 0, err
		}
	}

	doc, err := s.store.LoadHistory()
	if err != nil {
		return nil, 0, err
	}

	chats := append([]history.Chat(nil), doc.Chats...)
	sortChats(chats, OrderLastModified, true)

	var hits []SearchHit
	for i := range chats {
		c := &chats[i]
		if q.Engine != "" && !strings.EqualFold(c.Engine, q.Engine) {
			continue
		}
		if q.Model != "" && !strings.EqualFold(c.Model, q.Model) {
			continue
		}
		if !inDateRange(c, from, to) {
			continue
		}
		matched, titleHit, snippet := matchChat(c, query, scope)
		if !matched {
			continue
		}
		hits = append(hits, SearchHit{Chat: *c, TitleHit: titleHit, Snippet: snippet})
	}

	return paginate(hits, q.Offset, q.Limit), len(hits), nil
}

// CreateFolderInput carries create_folder arguments.
type CreateFolderInput struct {
	Name    string
	Confirm bool
}

// FolderResult describes a folder preview or a committed create.
type FolderResult struct {
	Folder        history.Folder
	DuplicateName bool
	Persisted     bool
	BackupFile    string
}

// CreateFolder normalizes the name (trimmed, inner whitespace collapsed),
// builds the candidate folder and either previews or persists it. Duplicate
// names are a warning, never a rejection.
func (s *Service) CreateFolder(in CreateFolderInput) (FolderResult, error) {
	name := utils.CollapseWhitespace(in.Name)
	if name == "" {
		return FolderResult{}, &ValidationError{Msg: "name is required"}
	}

	doc, err := s.store.LoadHistory()
	if err != nil {
		return FolderResult{}, err
	}

	result := FolderResult{
		Folder:        history.NewFolder(name, s.clock.NowMillis()),
		DuplicateName: hasFolderName(doc.Folders, name),
	}
	if !in.Confirm {
		return result, nil
	}

	// Reload before committing: preview and confirm are separate calls.
	doc, err = s.store.LoadHistory()
	if err != nil {
		return FolderResult{}, err
	}
	next := *doc
	next.Folders = append(append([]history.Folder(nil), doc.Folders...), result.Folder)
	backup, err := s.store.SaveHistory(doc, &next)
	if err != nil {
		return FolderResult{}, err
	}
	result.Persisted = true
	result.BackupFile = backup
	return result, nil
}

// MessageInput is one initial message for create_chat.
type MessageInput struct {
	Role    string
	Content string
}

// CreateChatInput carries create_chat arguments.
type CreateChatInput struct {
	Title            string
	Engine           string
	Model            string
	FolderID         string
	Messages         []MessageInput
	DisableStreaming bool
	Tools            []any
	Locale           string
	DocRepo          string
	Confirm          bool
}

// ChatResult describes a chat preview or a committed create.
type ChatResult struct {
	Chat       history.Chat
	FolderName string
	Persisted  bool
	BackupFile string
}

// CreateChat validates input, builds the candidate chat (title truncated to
// the 512-rune cap, messages stamped with monotonic timestamps) and either
// previews or persists it. Persisting also appends the chat uuid to the
// target folder and bumps that folder's lastModified.
func (s *Service) CreateChat(in CreateChatInput) (ChatResult, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return ChatResult{}, &ValidationError{Msg: "title is required"}
	}
	title = utils.TruncateRunes(title, history.MaxTitleRunes)

	for _, m := range in.Messages {
		if !history.ValidRole(m.Role) {
			return ChatResult{}, &ValidationError{Msg: "invalid message role '" + m.Role + "': use system, user or assistant"}
		}
	}

	doc, err := s.store.LoadHistory()
	if err != nil {
		return ChatResult{}, err
	}

	folderID := strings.TrimSpace(in.FolderID)
	var folderName string
	if folderID != "" {
		idx := doc.FindFolder(folderID)
		if idx < 0 {
			return ChatResult{}, ErrFolderNotFound
		}
		folderName = doc.Folders[idx].Name
	}

	chat := s.buildChat(title, in)
	result := ChatResult{Chat: chat, FolderName: folderName}
	if !in.Confirm {
		return result, nil
	}

	doc, err = s.store.LoadHistory()
	if err != nil {
		return ChatResult{}, err
	}
	next := *doc
	next.Chats = append(append([]history.Chat(nil), doc.Chats...), chat)
	next.Folders = append([]history.Folder(nil), doc.Folders...)
	if folderID != "" {
		idx := next.FindFolder(folderID)
		if idx < 0 {
			return ChatResult{}, ErrFolderNotFound
		}
		folder := next.Folders[idx]
		folder.Chats = append(append([]string(nil), folder.Chats...), chat.UUID)
		// Keeps folder.lastModified ≥ the chat's: the clock is strictly
		// increasing within the process.
		folder.LastModified = s.clock.NowMillis()
		next.Folders[idx] = folder
		result.FolderName = folder.Name
	}

	backup, err := s.store.SaveHistory(doc, &next)
	if err != nil {
		return ChatResult{}, err
	}
	result.Persisted = true
	result.BackupFile = backup
	return result, nil
}

func (s *Service) buildChat(title string, in CreateChatInput) history.Chat {
	created := s.clock.NowMillis()
	messages := make([]history.Message, 0, len(in.Messages))
	for _, m := range in.Messages {
		msg := history.NewMessage(m.Role, m.Content, s.clock.NowMillis())
		msg.Engine = in.Engine
		msg.Model = in.Model
		messages = append(messages, msg)
	}

	tools := in.Tools
	if tools == nil {
		tools = []any{}
	}

	chat := history.Chat{
		UUID:             uuid.NewString(),
		Title:            title,
		CreatedAt:        created,
		LastModified:     s.clock.NowMillis(),
		Engine:           in.Engine,
		Model:            in.Model,
		DisableStreaming: in.DisableStreaming,
		Tools:            tools,
		Messages:         messages,
	}
	if strings.TrimSpace(in.Locale) != "" {
		locale := in.Locale
		chat.Locale = &locale
	}
	if strings.TrimSpace(in.DocRepo) != "" {
		repo := in.DocRepo
		chat.DocRepo = &repo
	}
	return chat
}

func hasFolderName(folders []history.Folder, name string) bool {
	for i := range folders {
		if folders[i].Name == name {
			return true
		}
	}
	return false
}
