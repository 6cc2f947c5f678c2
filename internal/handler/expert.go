package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	expertModel "github.com/verifai/automcp/internal/model/expert"
	expertservice "github.com/verifai/automcp/internal/service/expert"
)

// ExpertHandler exposes the experts.json tools.
type ExpertHandler struct {
	svc *expertservice.Service
}

// NewExpertHandler creates the expert tool handler.
func NewExpertHandler(svc *expertservice.Service) *ExpertHandler {
	return &ExpertHandler{svc: svc}
}

// RegisterTools adds the expert tools to the MCP server.
func (h *ExpertHandler) RegisterTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("get_experts",
		mcp.WithDescription("List the experts available in the VerifAI Assistant (experts.json)."),
		mcp.WithReadOnlyHintAnnotation(true),
	), h.handleGetExperts)

	s.AddTool(mcp.NewTool("create_expert",
		mcp.WithDescription("Create a new expert in experts.json. With confirm=false returns a preview; with confirm=true saves the record."),
		mcp.WithString("name", mcp.Description("Name of the new expert.")),
		mcp.WithString("prompt", mcp.Description("System prompt of the new expert.")),
		mcp.WithBoolean("confirm", mcp.DefaultBool(false), mcp.Description("Set true to persist after reviewing the preview.")),
	), h.handleCreateExpert)

	s.AddTool(mcp.NewTool("update_expert",
		mcp.WithDescription("Update an existing expert in experts.json, targeted by id (preferred) or by unique name. With confirm=false returns an old/new preview."),
		mcp.WithString("id", mcp.Description("Identifier of the expert to update.")),
		mcp.WithString("name", mcp.Description("Name of the expert to update; must match exactly one record.")),
		mcp.WithString("new_name", mcp.Description("Replacement name.")),
		mcp.WithString("new_prompt", mcp.Description("Replacement prompt.")),
		mcp.WithString("new_state", mcp.Description("Replacement state: 'enabled' or 'disabled'."), mcp.Enum(expertModel.StateEnabled, expertModel.StateDisabled)),
		mcp.WithBoolean("confirm", mcp.DefaultBool(false), mcp.Description("Set true to persist after reviewing the preview.")),
	), h.handleUpdateExpert)
}

func (h *ExpertHandler) handleGetExperts(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	experts, err := h.svc.List()
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(FormatExperts(experts)), nil
}

// FormatExperts renders the expert listing text block. Exported for the
// diagnostic --test mode, which prints the same listing without a server.
func FormatExperts(experts []expertModel.Expert) string {
	if len(experts) == 0 {
		return "No experts found in experts.json."
	}

	var b strings.Builder
	b.WriteString("Experts available in the VerifAI Assistant:\n\n")
	for i, e := range experts {
		fmt.Fprintf(&b, "%d. ID: %s\n", i+1, valueOr(e.ID, "N/A"))
		fmt.Fprintf(&b, "   Type: %s\n", valueOr(e.Type, "N/A"))
		fmt.Fprintf(&b, "   State: %s\n", valueOr(e.State, "N/A"))
		if e.Name != "" {
			fmt.Fprintf(&b, "   Name: %s\n", e.Name)
		}
		if e.Prompt != "" {
			fmt.Fprintf(&b, "   Prompt: %s\n", e.Prompt)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (h *ExpertHandler) handleCreateExpert(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := h.svc.Create(expertservice.CreateInput{
		Name:    req.GetString("name", ""),
		Prompt:  req.GetString("prompt", ""),
		Confirm: req.GetBool("confirm", false),
	})
	if err != nil {
		return errorResult(err), nil
	}

	if len(res.Missing) > 0 {
		return mcp.NewToolResultText(
			"Missing data: " + strings.Join(res.Missing, ", ") +
				". Provide name and prompt and I will return a preview for confirmation.",
		), nil
	}

	if !res.Persisted {
		note := ""
		if res.DuplicateName {
			note = " (warning: an expert with this name already exists)"
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"Preview of the expert to be created%s:\n\n%s\n\nReply with confirm=true to save.",
			note, prettyJSON(res.Expert),
		)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Expert created successfully (id=%s). Backup: %s", res.Expert.ID, res.BackupFile,
	)), nil
}

func (h *ExpertHandler) handleUpdateExpert(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in := expertservice.UpdateInput{
		ID:      req.GetString("id", ""),
		Name:    req.GetString("name", ""),
		Confirm: req.GetBool("confirm", false),
	}
	if v, ok := stringArg(req, "new_name"); ok {
		in.NewName = &v
	}
	if v, ok := stringArg(req, "new_prompt"); ok {
		in.NewPrompt = &v
	}
	if v, ok := stringArg(req, "new_state"); ok {
		in.NewState = &v
	}

	res, err := h.svc.Update(in)
	switch {
	case err == nil:
	case errors.Is(err, expertservice.ErrNotFound):
		return mcp.NewToolResultText("No expert matches the given criteria."), nil
	case errors.Is(err, expertservice.ErrAmbiguous):
		lines := []string{"Multiple experts match this name. Specify 'id'."}
		for _, c := range res.Candidates {
			lines = append(lines, fmt.Sprintf("id=%s name=%s", c.ID, c.Name))
		}
		return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
	case errors.Is(err, expertservice.ErrNoChanges):
		return mcp.NewToolResultText("No changes supplied. Provide 'new_name', 'new_prompt' or 'new_state'."), nil
	default:
		var verr *expertservice.ValidationError
		if errors.As(err, &verr) {
			return mcp.NewToolResultText(verr.Msg + "."), nil
		}
		return errorResult(err), nil
	}

	if !res.Persisted {
		return mcp.NewToolResultText(fmt.Sprintf(
			"Update preview (old -> new):\nOLD:\n%s\nNEW:\n%s\n\nReply with confirm=true to apply.",
			prettyJSON(res.Old), prettyJSON(res.New),
		)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Expert updated successfully (id=%s). Backup: %s", res.New.ID, res.BackupFile,
	)), nil
}

// stringArg distinguishes "argument absent" from "argument empty", which the
// update semantics care about: an absent new_name leaves the field alone, an
// empty one would overwrite it.
func stringArg(req mcp.CallToolRequest, key string) (string, bool) {
	args := req.GetArguments()
	raw, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}

func prettyJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(data)
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
