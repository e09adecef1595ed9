package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"tableflip.dev/taskboard/pkg/category"
)

func registerTools(srv *server.MCPServer, svc *Service) {
	registerListTasksTool(srv, svc)
	registerAddTaskTool(srv, svc)
	registerToggleTaskTool(srv, svc)
	registerDeleteTaskTool(srv, svc)
	registerMoveTaskTool(srv, svc)
	registerChangeCategoryTool(srv, svc)
	registerExportTool(srv, svc)
	registerImportTool(srv, svc)
}

func categoryEnum() []string {
	all := category.Default().All()
	out := make([]string, 0, len(all))
	for _, c := range all {
		out = append(out, string(c.Name))
	}
	return out
}

func registerListTasksTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"list_tasks",
		mcp.WithDescription("List tasks grouped by category, in display order."),
		mcp.WithString("category",
			mcp.Description("Optional category filter, by name or short label."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cat := strings.TrimSpace(request.GetString("category", ""))
		if cat != "" {
			blk, err := svc.Block(ctx, cat)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return toJSONResult(blk)
		}
		board, err := svc.Board(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(board)
	})
}

func registerAddTaskTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"add_task",
		mcp.WithDescription("Add a task to the end of a category."),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Task text."),
		),
		mcp.WithString("category",
			mcp.Description("Category for the new task. Defaults to URGENT."),
			mcp.Enum(categoryEnum()...),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Text     string `json:"text"`
			Category string `json:"category"`
		}
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		dto, err := svc.AddTask(ctx, args.Text, args.Category)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if dto == nil {
			return mcp.NewToolResultText("blank task ignored"), nil
		}
		return toJSONResult(dto)
	})
}

func registerToggleTaskTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"toggle_task",
		mcp.WithDescription("Flip a task between done and not done."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Task identifier or a unique prefix of it."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		dto, err := svc.ToggleTask(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerDeleteTaskTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"delete_task",
		mcp.WithDescription("Delete a task."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Task identifier or a unique prefix of it."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		deleted, err := svc.DeleteTask(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{"deleted": deleted})
	})
}

func registerMoveTaskTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"move_task",
		mcp.WithDescription("Swap a task with its neighbour inside its category."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Task identifier or a unique prefix of it."),
		),
		mcp.WithString("direction",
			mcp.Required(),
			mcp.Description("Which neighbour to swap with."),
			mcp.Enum("up", "down"),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		dir, err := request.RequireString("direction")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		blk, err := svc.MoveTask(ctx, id, dir)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(blk)
	})
}

func registerChangeCategoryTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"change_category",
		mcp.WithDescription("Move a task to the end of another category."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Task identifier or a unique prefix of it."),
		),
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description("Destination category."),
			mcp.Enum(categoryEnum()...),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		cat, err := request.RequireString("category")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		dto, err := svc.ChangeCategory(ctx, id, cat)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerExportTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"export_tasks",
		mcp.WithDescription("Export every task as an interchange document."),
		mcp.WithString("format",
			mcp.Description("Document format (default json)."),
			mcp.Enum("json", "yaml"),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		doc, err := svc.Export(ctx, request.GetString("format", "json"))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(doc), nil
	})
}

func registerImportTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"import_tasks",
		mcp.WithDescription("Replace every task with the contents of an interchange document."),
		mcp.WithString("document",
			mcp.Required(),
			mcp.Description("Exported document, or a bare JSON array of tasks."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		doc, err := request.RequireString("document")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		res, err := svc.Import(ctx, doc)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{
			"count":   res.Count,
			"source":  res.Source,
			"message": res.String(),
		})
	})
}

func toJSONResult(data any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal error: %v", err)), nil
	}
	return result, nil
}
