// Package pb ledger.v1.ToolService のサービス定義
//
// メッセージはgoogle.protobuf.Structで表現するため、生成コードを持たない。
//
//	CallTool: {name: string, arguments: object} -> {text: string, is_error: bool}
package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// ToolServiceName サービス名
	ToolServiceName = "ledger.v1.ToolService"
	// ToolServiceCallToolFullMethod CallToolのフルメソッド名
	ToolServiceCallToolFullMethod = "/ledger.v1.ToolService/CallTool"
)

// ToolServiceServer サーバー側インターフェース
type ToolServiceServer interface {
	CallTool(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterToolServiceServer サービスを登録する
func RegisterToolServiceServer(s grpc.ServiceRegistrar, srv ToolServiceServer) {
	s.RegisterService(&ToolServiceDesc, srv)
}

func toolServiceCallToolHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ToolServiceServer).CallTool(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ToolServiceCallToolFullMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ToolServiceServer).CallTool(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ToolServiceDesc ledger.v1.ToolServiceのサービス記述子
var ToolServiceDesc = grpc.ServiceDesc{
	ServiceName: ToolServiceName,
	HandlerType: (*ToolServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CallTool",
			Handler:    toolServiceCallToolHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ledger/v1/tool_service.proto",
}

// ToolServiceClient クライアント側インターフェース
type ToolServiceClient interface {
	CallTool(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type toolServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewToolServiceClient 新しいクライアントを作成
func NewToolServiceClient(cc grpc.ClientConnInterface) ToolServiceClient {
	return &toolServiceClient{cc: cc}
}

func (c *toolServiceClient) CallTool(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ToolServiceCallToolFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
