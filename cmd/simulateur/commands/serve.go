package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	grpc_adapter "github.com/kdidiop/participant-simulateur/internal/app/core/adapter/in/grpc"
	http_adapter "github.com/kdidiop/participant-simulateur/internal/app/core/adapter/in/http"
	memory_adapter "github.com/kdidiop/participant-simulateur/internal/app/core/adapter/out/memory"
	"github.com/kdidiop/participant-simulateur/internal/app/core/usecase"
	"github.com/kdidiop/participant-simulateur/internal/config"
	"github.com/kdidiop/participant-simulateur/pkg/journal"
	"github.com/kdidiop/participant-simulateur/pkg/logger"
	"github.com/kdidiop/participant-simulateur/pkg/txid"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP (and optional gRPC) simulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				cfg.HTTP.Addr = addr
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	return cmd
}

// application 組裝完成的服務與需要在結束時釋放的資源
type application struct {
	logger   *zap.Logger
	core     *usecase.CoreUseCase
	webhooks *usecase.WebhookUseCase
	closers  []func() error
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close resource failed", zap.Error(err))
		}
	}
}

// build 依設定組裝所有元件
//
// 參數:
//
//	ctx: 控制 LMAX 迴圈生命週期
//	cfg: 設定
//	log: 日誌
//
// 回傳:
//
//	*application: 組裝結果，呼叫端負責 close
//	error: 初始化失敗
func build(ctx context.Context, cfg config.Config, log *zap.Logger) (*application, error) {
	app := &application{logger: log}

	// 1. 交易編號產生器
	ids, err := txid.NewGenerator(cfg.Snowflake.Node)
	if err != nil {
		return nil, err
	}

	// 2. 初始資料
	seed := memory_adapter.DefaultSeed(time.Now(), cfg.Seed.Accounts)
	accounts := memory_adapter.NewAccountStore(seed.Accounts)
	aliases := memory_adapter.NewAliasStore(seed.Aliases)
	transactions := memory_adapter.NewTransactionStore(ids, seed.Transactions)
	log.Info("seed loaded",
		zap.Int("accounts", len(seed.Accounts)),
		zap.Int("aliases", len(seed.Aliases)),
		zap.Int("transactions", len(seed.Transactions)))

	// 3. 執行器
	var executor usecase.Executor
	switch cfg.Engine {
	case config.EngineLMAX:
		seq := memory_adapter.NewSequencer(0)
		seq.Start(ctx)
		executor = seq
	default:
		executor = memory_adapter.NewMutexExecutor()
	}
	log.Info("executor ready", zap.String("engine", string(cfg.Engine)))

	// 4. 稽核紀錄
	var coreOpts []usecase.CoreOption
	if cfg.Journal.Path != "" {
		j, err := journal.Open(cfg.Journal.Path, journal.WithSync(cfg.Journal.Sync))
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, j.Close)
		coreOpts = append(coreOpts, usecase.WithJournal(j))
		log.Info("journal enabled", zap.String("path", cfg.Journal.Path))
	}

	// 5. UseCase
	service := usecase.NewAccountService(accounts, aliases, transactions, executor)
	app.core = usecase.NewCoreUseCase(service, log, coreOpts...)
	app.webhooks = usecase.NewWebhookUseCase(memory_adapter.NewWebhookStore(), executor, log, cfg.Webhook.Max)
	return app, nil
}

func serve(parent context.Context, cfg config.Config) error {
	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engineCtx, stopEngine := context.WithCancel(context.Background())
	defer stopEngine()

	app, err := build(engineCtx, cfg, log)
	if err != nil {
		return err
	}
	defer app.close()

	errCh := make(chan error, 2)

	// 1. HTTP
	httpServer := http_adapter.NewServer(cfg, app.core, app.webhooks, log)
	go func() {
		if err := httpServer.Listen(cfg.HTTP.Addr); err != nil {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// 2. gRPC (選用)
	var grpcServer *grpc.Server
	if cfg.GRPC.Enabled {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			return fmt.Errorf("grpc listen %s: %w", cfg.GRPC.Addr, err)
		}
		grpcServer = grpc_adapter.NewServer(app.core, log)
		go func() {
			log.Info("grpc server listening", zap.String("addr", cfg.GRPC.Addr))
			if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	log.Info("simulator started",
		zap.String("version", cfg.Version),
		zap.String("scenario", cfg.Scenario),
		zap.String("http", cfg.HTTP.Addr),
		zap.Bool("grpc", cfg.GRPC.Enabled))

	// 3. 等待中斷或啟動失敗
	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case runErr = <-errCh:
		log.Error("server failed", zap.Error(runErr))
	}

	// 4. Graceful Shutdown: 先停止接收請求，再關閉執行器
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	stopEngine()

	log.Info("simulator exited")
	return runErr
}
