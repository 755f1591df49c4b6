package handler

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"ynab-mcp-server/internal/presentation/mcpserver"
)

// ToolCaller ツールレジストリの呼び出し口
type ToolCaller interface {
	Call(ctx context.Context, name string, args map[string]interface{}) (*mcpserver.ToolResult, error)
}

// ToolHandler gRPCのツール呼び出しハンドラー
type ToolHandler struct {
	tools ToolCaller
}

// NewToolHandler 新しいToolHandlerを作成
func NewToolHandler(tools ToolCaller) *ToolHandler {
	return &ToolHandler{tools: tools}
}

// CallTool HTTPと同じレジストリでツールを実行する
func (h *ToolHandler) CallTool(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, span := otel.Tracer("grpc-handler").Start(ctx, "ToolHandler.CallTool")
	defer span.End()

	fields := req.GetFields()
	name := fields["name"].GetStringValue()
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "name is required")
	}
	span.SetAttributes(attribute.String("tool", name))

	var args map[string]interface{}
	if v, ok := fields["arguments"]; ok {
		s := v.GetStructValue()
		if s == nil {
			return nil, status.Error(codes.InvalidArgument, "arguments must be an object")
		}
		args = s.AsMap()
	}

	res, err := h.tools.Call(ctx, name, args)
	if err != nil {
		span.RecordError(err)
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	out, err := structpb.NewStruct(map[string]interface{}{
		"text":     res.Text,
		"is_error": res.IsError,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}
