package grpc

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/kdidiop/participant-simulateur/internal/app/core/domain"
	"github.com/kdidiop/participant-simulateur/internal/app/core/usecase"
)

// ServiceName gRPC 服務全名
const ServiceName = "simulateur.v1.CompteService"

// CompteServiceServer 帳戶服務，請求與回應皆為 structpb.Struct，欄位名稱與 HTTP JSON 相同
type CompteServiceServer interface {
	GetAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListTransactions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateTransaction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListAliases(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateAlias(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteAlias(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc 手寫的服務描述，不需要 protoc 產生程式碼
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CompteServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetAccount", CompteServiceServer.GetAccount),
		unary("ListTransactions", CompteServiceServer.ListTransactions),
		unary("CreateTransaction", CompteServiceServer.CreateTransaction),
		unary("ListAliases", CompteServiceServer.ListAliases),
		unary("CreateAlias", CompteServiceServer.CreateAlias),
		unary("DeleteAlias", CompteServiceServer.DeleteAlias),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "simulateur/v1/compte.proto",
}

type method func(CompteServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, fn method) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return fn(srv.(CompteServiceServer), ctx, req.(*structpb.Struct))
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Register 註冊帳戶服務
func Register(s grpc.ServiceRegistrar, srv CompteServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type GrpcServer struct {
	core *usecase.CoreUseCase
}

var _ CompteServiceServer = (*GrpcServer)(nil)

func NewGrpcServer(core *usecase.CoreUseCase) *GrpcServer {
	return &GrpcServer{
		core: core,
	}
}

// NewServer 建立帶有攔截器的 grpc.Server 並註冊服務
func NewServer(core *usecase.CoreUseCase, logger *zap.Logger, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(RecoveryInterceptor(logger), LoggingInterceptor(logger)),
	}, opts...)
	s := grpc.NewServer(opts...)
	Register(s, NewGrpcServer(core))
	return s
}

// GetAccount 請求: {"numero"}
func (s *GrpcServer) GetAccount(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	account, err := s.core.GetAccount(ctx, stringField(req, "numero"))
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(account)
}

// ListTransactions 請求: {"page","size","sort","statut"}
func (s *GrpcServer) ListTransactions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	filter := domain.TransactionFilter{
		Page:   intField(req, "page"),
		Size:   intField(req, "size"),
		Sort:   stringField(req, "sort"),
		Status: domain.TransactionStatus(stringField(req, "statut")),
	}
	page, err := s.core.GetTransactions(ctx, filter)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(page)
}

// CreateTransaction 請求: {"compteDebiteur","compteCrediteur","montant","motif"}
func (s *GrpcServer) CreateTransaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	amount, violation := amountField(req)
	if violation != nil {
		return nil, toStatus(domain.NewValidationError(violation.Field, violation.Reason))
	}
	tx, err := s.core.CreateTransaction(ctx, domain.TransferRequest{
		DebitAccount:  stringField(req, "compteDebiteur"),
		CreditAccount: stringField(req, "compteCrediteur"),
		Amount:        amount,
		Motif:         stringField(req, "motif"),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(tx)
}

// ListAliases 請求: {"numero"}，回應: {"data": [...]}
func (s *GrpcServer) ListAliases(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	aliases, err := s.core.GetAlias(ctx, stringField(req, "numero"))
	if err != nil {
		return nil, toStatus(err)
	}
	if aliases == nil {
		aliases = []domain.Alias{}
	}
	return reply(map[string]any{"data": aliases})
}

// CreateAlias 請求: {"numero","type"}
func (s *GrpcServer) CreateAlias(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	alias, err := s.core.CreateAlias(ctx, stringField(req, "numero"), domain.AliasType(stringField(req, "type")))
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(alias)
}

// DeleteAlias 請求: {"numero","cle"}，成功回傳空物件
func (s *GrpcServer) DeleteAlias(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := s.core.DeleteAlias(ctx, stringField(req, "numero"), stringField(req, "cle")); err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{}, nil
}

func reply(v any) (*structpb.Struct, error) {
	out, err := toStruct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// LoggingInterceptor 記錄方法、狀態碼與耗時
func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("latency", time.Since(start)),
		}
		if code == codes.Internal || code == codes.Unknown {
			logger.Error("grpc request", append(fields, zap.Error(err))...)
		} else {
			logger.Info("grpc request", fields...)
		}
		return resp, err
	}
}

// RecoveryInterceptor panic 轉為 codes.Internal
func RecoveryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("grpc handler panic", zap.String("method", info.FullMethod), zap.Any("panic", r))
				err = status.Error(codes.Internal, fmt.Sprintf("panic: %v", r))
			}
		}()
		return handler(ctx, req)
	}
}
