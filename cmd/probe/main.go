package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	grpc_adapter "github.com/kdidiop/participant-simulateur/internal/app/core/adapter/in/grpc"
	memory_adapter "github.com/kdidiop/participant-simulateur/internal/app/core/adapter/out/memory"
	"github.com/kdidiop/participant-simulateur/internal/app/core/domain"
	grpcpool "github.com/kdidiop/participant-simulateur/pkg/grpc"
)

// probe 對 gRPC 介面發送大量轉帳，量測 TPS
func main() {
	var (
		target      string
		total       int
		concurrency int
		amount      int64
		timeout     time.Duration
		verbose     bool
	)
	cmd := &cobra.Command{
		Use:          "probe",
		Short:        "Load probe for the simulator gRPC endpoint",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zap.NewNop()
			if verbose {
				l, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				logger = l
			}
			pool := grpcpool.NewPool(grpcpool.WithLogger(logger))
			defer pool.Close()

			conn, err := pool.GetConnection(target)
			if err != nil {
				return err
			}
			client := grpc_adapter.NewClient(conn)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return runProbe(ctx, client, total, concurrency, amount)
		},
	}
	cmd.Flags().StringVar(&target, "target", "localhost:50051", "gRPC address")
	cmd.Flags().IntVarP(&total, "count", "n", 100000, "number of transfers")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 500, "in-flight requests")
	cmd.Flags().Int64Var(&amount, "amount", 100, "amount per transfer")
	cmd.Flags().DurationVar(&timeout, "timeout", 120*time.Second, "overall timeout")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every call")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runProbe(ctx context.Context, client *grpc_adapter.Client, total, concurrency int, amount int64) error {
	if total <= 0 || concurrency <= 0 {
		return fmt.Errorf("count and concurrency must be positive")
	}

	var (
		wg     sync.WaitGroup
		failed atomic.Int64
		kinds  sync.Map // map[domain.ErrorKind]*atomic.Int64
	)
	wg.Add(total)
	sem := make(chan struct{}, concurrency)
	startTime := time.Now()

	for i := 0; i < total; i++ {
		sem <- struct{}{}

		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			_, err := client.CreateTransaction(ctx, domain.TransferRequest{
				DebitAccount:  memory_adapter.AccountPrimary,
				CreditAccount: memory_adapter.AccountSecondary,
				Amount:        amount,
				Motif:         "probe " + uuid.NewString(),
			})
			if err != nil {
				failed.Add(1)
				v, _ := kinds.LoadOrStore(domain.KindOf(err), new(atomic.Int64))
				v.(*atomic.Int64).Add(1)
				if idx%10000 == 0 {
					log.Printf("Transfer %d failed: %v", idx, err)
				}
			}
		}(i)
	}

	wg.Wait()

	elapsed := time.Since(startTime)
	fmt.Printf("Completed %d requests in %v (%d failed)\n", total, elapsed, failed.Load())
	fmt.Printf("TPS: %.2f\n", float64(total)/elapsed.Seconds())
	kinds.Range(func(k, v any) bool {
		fmt.Printf("  %s: %d\n", k, v.(*atomic.Int64).Load())
		return true
	})
	return nil
}
