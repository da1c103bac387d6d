package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region service
// The tool RPC carries google.protobuf.Struct on both sides:
//
//	request  {content: string, context: object}
//	response {content: string, metadata: object}
const (
	serviceName = "awareness.v1.ToolService"
	callMethod  = "/" + serviceName + "/Call"
)

// ToolServiceClient is the client side of the tool RPC.
type ToolServiceClient interface {
	Call(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type toolServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewToolServiceClient binds a ToolServiceClient to a connection.
func NewToolServiceClient(cc grpc.ClientConnInterface) ToolServiceClient {
	return &toolServiceClient{cc: cc}
}

func (c *toolServiceClient) Call(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, callMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// #endregion service

// #region client-struct
// GRPCTool forwards questions to a remote tool service.
type GRPCTool struct {
	conn    *grpc.ClientConn
	client  ToolServiceClient
	name    string
	timeout time.Duration
}

// #endregion client-struct

// #region constructor
// NewGRPCTool connects to a tool service. Extra dial options are appended
// after the default insecure transport credentials.
func NewGRPCTool(addr, name string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCTool, error) {
	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &GRPCTool{
		conn:    conn,
		client:  NewToolServiceClient(conn),
		name:    name,
		timeout: timeout,
	}, nil
}

// NewGRPCToolWithService creates a GRPCTool with an injected client.
// Used for testing without a real gRPC connection.
func NewGRPCToolWithService(svc ToolServiceClient, name string, timeout time.Duration) *GRPCTool {
	return &GRPCTool{client: svc, name: name, timeout: timeout}
}

// Close shuts down the gRPC connection.
func (t *GRPCTool) Close() error {
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}

// #endregion constructor

// #region call
func (t *GRPCTool) Name() string { return t.name }

// Call sends the query and waits for the reply, bounded by the configured timeout.
func (t *GRPCTool) Call(ctx context.Context, q Query) (Result, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	req, err := toStruct(map[string]any{
		"content": q.Content,
		"context": q.Context,
	})
	if err != nil {
		return Result{}, fmt.Errorf("encode query: %w", err)
	}

	resp, err := t.client.Call(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("call rpc: %w", err)
	}

	out := Result{Raw: resp, Metadata: map[string]any{}}
	fields := resp.GetFields()
	if v, ok := fields["content"]; ok {
		out.Content = v.GetStringValue()
	}
	if v, ok := fields["metadata"]; ok && v.GetStructValue() != nil {
		out.Metadata = v.GetStructValue().AsMap()
	}
	return out, nil
}

// #endregion call

// #region server
// ToolServer is the server side of the tool RPC.
type ToolServer interface {
	Call(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// ToolServiceDesc describes the tool service for grpc.Server registration.
var ToolServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ToolServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Call", Handler: callHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "awareness/v1/tool.proto",
}

func callHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ToolServer).Call(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: callMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ToolServer).Call(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterToolServer exposes a Tool over gRPC.
func RegisterToolServer(s grpc.ServiceRegistrar, t Tool) {
	s.RegisterService(&ToolServiceDesc, &toolServer{tool: t})
}

type toolServer struct {
	tool Tool
}

func (s *toolServer) Call(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	fields := in.GetFields()
	q := Query{Content: fields["content"].GetStringValue()}
	if c := fields["context"].GetStructValue(); c != nil {
		q.Context = c.AsMap()
	}

	res, err := s.tool.Call(ctx, q)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	out, err := toStruct(map[string]any{
		"content":  res.Content,
		"metadata": res.Metadata,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	return out, nil
}

// #endregion server

// #region helpers
// toStruct normalizes arbitrary Go values through JSON so structpb accepts them.
func toStruct(m map[string]any) (*structpb.Struct, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var plain map[string]any
	if err := json.Unmarshal(data, &plain); err != nil {
		return nil, err
	}
	return structpb.NewStruct(plain)
}

// #endregion helpers
