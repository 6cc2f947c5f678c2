package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	historyservice "github.com/verifai/automcp/internal/service/history"
)

// HistoryHandler exposes the history.json tools.
type HistoryHandler struct {
	svc *historyservice.Service
}

// NewHistoryHandler creates the history tool handler.
func NewHistoryHandler(svc *historyservice.Service) *HistoryHandler {
	return &HistoryHandler{svc: svc}
}

// RegisterTools adds the history tools to the MCP server.
func (h *HistoryHandler) RegisterTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("get_folders",
		mcp.WithDescription("List the chat folders in history.json."),
		mcp.WithReadOnlyHintAnnotation(true),
	), h.handleGetFolders)

	s.AddTool(mcp.NewTool("get_chats",
		mcp.WithDescription("List chats from history.json with deterministic ordering and pagination."),
		mcp.WithString("folder_id", mcp.Description("Restrict the listing to chats referenced by this folder.")),
		mcp.WithNumber("limit", mcp.DefaultNumber(20), mcp.Description("Page size.")),
		mcp.WithNumber("offset", mcp.DefaultNumber(0), mcp.Description("Number of chats to skip after sorting.")),
		mcp.WithString("order", mcp.DefaultString(historyservice.DefaultOrder),
			mcp.Description("Sort key: lastModified, createdAt or title; prefix with '-' for descending.")),
		mcp.WithReadOnlyHintAnnotation(true),
	), h.handleGetChats)

	s.AddTool(mcp.NewTool("get_chat",
		mcp.WithDescription("Show one chat by uuid, optionally with a paginated message listing."),
		mcp.WithString("uuid", mcp.Required(), mcp.Description("Identifier of the chat.")),
		mcp.WithBoolean("include_messages", mcp.DefaultBool(false), mcp.Description("Include the message transcript.")),
		mcp.WithNumber("msg_limit", mcp.DefaultNumber(20), mcp.Description("Message page size.")),
		mcp.WithNumber("msg_offset", mcp.DefaultNumber(0), mcp.Description("Messages to skip.")),
		mcp.WithReadOnlyHintAnnotation(true),
	), h.handleGetChat)

	s.AddTool(mcp.NewTool("search_history",
		mcp.WithDescription("Search chats by case-insensitive substring across titles and/or message bodies, with optional date, engine and model filters."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Substring to search for.")),
		mcp.WithString("in", mcp.DefaultString(historyservice.ScopeBoth),
			mcp.Description("Search scope."), mcp.Enum(historyservice.ScopeTitles, historyservice.ScopeMessages, historyservice.ScopeBoth)),
		mcp.WithString("date_from", mcp.Description("Lower bound: YYYY-MM-DD or YYYY-MM-DD HH:MM, local time.")),
		mcp.WithString("date_to", mcp.Description("Upper bound: YYYY-MM-DD or YYYY-MM-DD HH:MM, local time; day precision covers the whole day.")),
		mcp.WithString("engine", mcp.Description("Only chats using this engine.")),
		mcp.WithString("model", mcp.Description("Only chats using this model.")),
		mcp.WithNumber("limit", mcp.DefaultNumber(20), mcp.Description("Page size.")),
		mcp.WithNumber("offset", mcp.DefaultNumber(0), mcp.Description("Results to skip.")),
		mcp.WithReadOnlyHintAnnotation(true),
	), h.handleSearchHistory)

	s.AddTool(mcp.NewTool("create_folder",
		mcp.WithDescription("Create a chat folder in history.json. With confirm=false returns a preview; with confirm=true saves."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Folder name; surrounding and repeated whitespace is collapsed.")),
		mcp.WithBoolean("confirm", mcp.DefaultBool(false), mcp.Description("Set true to persist after reviewing the preview.")),
	), h.handleCreateFolder)

	s.AddTool(mcp.NewTool("create_chat",
		mcp.WithDescription("Create a chat in history.json, optionally inside a folder and seeded with initial messages. With confirm=false returns a preview."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Chat title; truncated to 512 characters.")),
		mcp.WithString("engine", mcp.Description("Engine the chat is bound to.")),
		mcp.WithString("model", mcp.Description("Model the chat is bound to.")),
		mcp.WithString("folder_id", mcp.Description("Folder that should reference the new chat.")),
		mcp.WithArray("initial_messages",
			mcp.Description("Initial messages as objects with 'role' (system, user or assistant) and 'content'."),
			mcp.Items(map[string]any{"type": "object"})),
		mcp.WithBoolean("disableStreaming", mcp.DefaultBool(false), mcp.Description("Disable response streaming for this chat.")),
		mcp.WithArray("tools", mcp.Description("Tool identifiers enabled for this chat."),
			mcp.Items(map[string]any{"type": "string"})),
		mcp.WithString("locale", mcp.Description("Locale override, e.g. 'en-US'.")),
		mcp.WithString("docrepo", mcp.Description("Document repository attached to the chat.")),
		mcp.WithBoolean("confirm", mcp.DefaultBool(false), mcp.Description("Set true to persist after reviewing the preview.")),
	), h.handleCreateChat)
}

func (h *HistoryHandler) handleGetFolders(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folders, err := h.svc.Folders()
	if err != nil {
		return errorResult(err), nil
	}
	if len(folders) == 0 {
		return mcp.NewToolResultText("No folders found in history.json."), nil
	}

	var b strings.Builder
	b.WriteString("Folders in history.json:\n\n")
	for i, f := range folders {
		fmt.Fprintf(&b, "%d. %s (id=%s)\n", i+1, f.Name, f.ID)
		fmt.Fprintf(&b, "   Chats: %d\n", len(f.Chats))
		fmt.Fprintf(&b, "   Created: %s  Modified: %s\n\n", formatMillis(f.CreatedAt), formatMillis(f.LastModified))
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

func (h *HistoryHandler) handleGetChats(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := historyservice.ChatsQuery{
		FolderID: req.GetString("folder_id", ""),
		Limit:    req.GetInt("limit", 20),
		Offset:   req.GetInt("offset", 0),
		Order:    req.GetString("order", historyservice.DefaultOrder),
	}

	page, total, err := h.svc.Chats(q)
	if err != nil {
		return h.recoverHistoryErr(err)
	}
	if total == 0 {
		return mcp.NewToolResultText("No chats found."), nil
	}
	if len(page) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No chats in this range (total %d).", total)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Chats %d-%d of %d:\n\n", q.Offset+1, q.Offset+len(page), total)
	for i, c := range page {
		fmt.Fprintf(&b, "%d. %s\n", q.Offset+i+1, valueOr(c.Title, "(untitled)"))
		fmt.Fprintf(&b, "   UUID: %s\n", c.UUID)
		if c.Engine != "" || c.Model != "" {
			fmt.Fprintf(&b, "   Engine: %s  Model: %s\n", valueOr(c.Engine, "N/A"), valueOr(c.Model, "N/A"))
		}
		fmt.Fprintf(&b, "   Messages: %d\n", len(c.Messages))
		fmt.Fprintf(&b, "   Created: %s  Modified: %s\n\n", formatMillis(c.CreatedAt), formatMillis(c.LastModified))
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

func (h *HistoryHandler) handleGetChat(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("uuid", "")
	chat, err := h.svc.Chat(id)
	if err != nil {
		return h.recoverHistoryErr(err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Chat: %s\n", valueOr(chat.Title, "(untitled)"))
	fmt.Fprintf(&b, "UUID: %s\n", chat.UUID)
	if chat.Engine != "" || chat.Model != "" {
		fmt.Fprintf(&b, "Engine: %s  Model: %s\n", valueOr(chat.Engine, "N/A"), valueOr(chat.Model, "N/A"))
	}
	if chat.Locale != nil {
		fmt.Fprintf(&b, "Locale: %s\n", *chat.Locale)
	}
	if chat.DocRepo != nil {
		fmt.Fprintf(&b, "DocRepo: %s\n", *chat.DocRepo)
	}
	fmt.Fprintf(&b, "Created: %s  Modified: %s\n", formatMillis(chat.CreatedAt), formatMillis(chat.LastModified))
	fmt.Fprintf(&b, "Messages: %d\n", len(chat.Messages))

	if req.GetBool("include_messages", false) {
		offset := req.GetInt("msg_offset", 0)
		limit := req.GetInt("msg_limit", 20)
		page, total, err := h.svc.Messages(id, offset, limit)
		if err != nil {
			return h.recoverHistoryErr(err)
		}
		if len(page) == 0 {
			fmt.Fprintf(&b, "\nNo messages in this range (total %d).", total)
		} else {
			fmt.Fprintf(&b, "\nMessages %d-%d of %d:\n", offset+1, offset+len(page), total)
			for _, m := range page {
				text := m.DisplayText()
				if text == "" {
					text = "(no text)"
				}
				fmt.Fprintf(&b, "\n[%s] %s\n", m.Role, text)
			}
		}
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

func (h *HistoryHandler) handleSearchHistory(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := historyservice.SearchQuery{
		Query:    req.GetString("query", ""),
		Scope:    req.GetString("in", historyservice.ScopeBoth),
		DateFrom: req.GetString("date_from", ""),
		DateTo:   req.GetString("date_to", ""),
		Engine:   req.GetString("engine", ""),
		Model:    req.GetString("model", ""),
		Limit:    req.GetInt("limit", 20),
		Offset:   req.GetInt("offset", 0),
	}

	hits, total, err := h.svc.Search(q)
	if err != nil {
		return h.recoverHistoryErr(err)
	}
	if total == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No chats match %q.", q.Query)), nil
	}
	if len(hits) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No results in this range (total %d).", total)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Results %d-%d of %d for %q:\n\n", q.Offset+1, q.Offset+len(hits), total, q.Query)
	for i, hit := range hits {
		fmt.Fprintf(&b, "%d. %s (uuid=%s)\n", q.Offset+i+1, valueOr(hit.Chat.Title, "(untitled)"), hit.Chat.UUID)
		fmt.Fprintf(&b, "   Modified: %s\n", formatMillis(hit.Chat.LastModified))
		fmt.Fprintf(&b, "   Match: %s\n", matchKind(hit))
		if hit.Snippet != "" {
			fmt.Fprintf(&b, "   Snippet: %s\n", hit.Snippet)
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

func matchKind(hit historyservice.SearchHit) string {
	switch {
	case hit.TitleHit && hit.Snippet != "":
		return "title, message"
	case hit.TitleHit:
		return "title"
	default:
		return "message"
	}
}

func (h *HistoryHandler) handleCreateFolder(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := h.svc.CreateFolder(historyservice.CreateFolderInput{
		Name:    req.GetString("name", ""),
		Confirm: req.GetBool("confirm", false),
	})
	if err != nil {
		return h.recoverHistoryErr(err)
	}

	if !res.Persisted {
		note := ""
		if res.DuplicateName {
			note = " (warning: a folder with this name already exists)"
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"Preview of the folder to be created%s:\n\n%s\n\nReply with confirm=true to save.",
			note, prettyJSON(res.Folder),
		)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Folder created successfully (id=%s). Backup: %s", res.Folder.ID, res.BackupFile,
	)), nil
}

func (h *HistoryHandler) handleCreateChat(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in := historyservice.CreateChatInput{
		Title:            req.GetString("title", ""),
		Engine:           req.GetString("engine", ""),
		Model:            req.GetString("model", ""),
		FolderID:         req.GetString("folder_id", ""),
		DisableStreaming: req.GetBool("disableStreaming", false),
		Locale:           req.GetString("locale", ""),
		DocRepo:          req.GetString("docrepo", ""),
		Confirm:          req.GetBool("confirm", false),
	}

	args := req.GetArguments()
	if raw, ok := args["tools"].([]any); ok {
		in.Tools = raw
	}
	messages, err := decodeMessages(args["initial_messages"])
	if err != nil {
		return mcp.NewToolResultText(err.Error() + "."), nil
	}
	in.Messages = messages

	res, err := h.svc.CreateChat(in)
	if err != nil {
		return h.recoverHistoryErr(err)
	}

	if !res.Persisted {
		var b strings.Builder
		b.WriteString("Preview of the chat to be created")
		if res.FolderName != "" {
			fmt.Fprintf(&b, " in folder %q", res.FolderName)
		}
		fmt.Fprintf(&b, ":\n\n%s\n\nReply with confirm=true to save.", prettyJSON(res.Chat))
		return mcp.NewToolResultText(b.String()), nil
	}

	text := fmt.Sprintf("Chat created successfully (uuid=%s). Backup: %s", res.Chat.UUID, res.BackupFile)
	if res.FolderName != "" {
		text += fmt.Sprintf(" Added to folder %q.", res.FolderName)
	}
	return mcp.NewToolResultText(text), nil
}

// decodeMessages parses the initial_messages argument: a JSON array of
// objects carrying role and content strings.
func decodeMessages(raw any) ([]historyservice.MessageInput, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, errors.New("initial_messages must be an array of {role, content} objects")
	}

	out := make([]historyservice.MessageInput, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, errors.New("initial_messages must be an array of {role, content} objects")
		}
		role, _ := obj["role"].(string)
		content, _ := obj["content"].(string)
		out = append(out, historyservice.MessageInput{Role: role, Content: content})
	}
	return out, nil
}

// recoverHistoryErr maps history failures to tool-result text: target
// resolution and validation outcomes read as guidance, everything else as an
// error result.
func (h *HistoryHandler) recoverHistoryErr(err error) (*mcp.CallToolResult, error) {
	switch {
	case errors.Is(err, historyservice.ErrChatNotFound):
		return mcp.NewToolResultText("No chat matches the given uuid."), nil
	case errors.Is(err, historyservice.ErrFolderNotFound):
		return mcp.NewToolResultText("No folder matches the given id."), nil
	}
	var verr *historyservice.ValidationError
	if errors.As(err, &verr) {
		return mcp.NewToolResultText(verr.Msg + "."), nil
	}
	return errorResult(err), nil
}
