package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kdidiop/participant-simulateur/internal/app/core/usecase"
)

// ErrSequencerStopped 序列器已停止
var ErrSequencerStopped = errors.New("sequencer stopped")

// job 包裝複合操作，讓 Execute 可以等待結果
type job struct {
	fn     func() error
	result chan error
}

// Sequencer 單一寫入者: 所有複合操作透過 channel 交給同一個 goroutine 依序執行
type Sequencer struct {
	// 輸送帶 負責接收操作
	jobs chan *job
	// Pool 減少 GC 壓力
	pool sync.Pool
	done chan struct{}
}

// NewSequencer 建立序列器，需呼叫 Start 才會開始處理
//
// 參數:
//
//	buffer: channel 緩衝大小
//
// 回傳:
//
//	*Sequencer: 序列器實例
func NewSequencer(buffer int) *Sequencer {
	if buffer <= 0 {
		buffer = 1000
	}
	return &Sequencer{
		jobs: make(chan *job, buffer),
		pool: sync.Pool{
			New: func() interface{} {
				return &job{result: make(chan error, 1)}
			},
		},
		done: make(chan struct{}),
	}
}

// Start 啟動處理迴圈 (非同步)，ctx 取消後處理完剩餘操作即結束
func (s *Sequencer) Start(ctx context.Context) {
	go s.run(ctx)
}

// Done 迴圈結束後關閉
func (s *Sequencer) Done() <-chan struct{} {
	return s.done
}

// Execute 送出操作並等待結果
//
// Execute(等待) -> Channel -> Run Loop -> fn -> Result Channel -> Execute(收到結果)
func (s *Sequencer) Execute(ctx context.Context, fn func() error) error {
	// 1. 放入輸送帶 (使用 sync.Pool 減少 GC)
	j := s.pool.Get().(*job)
	j.fn = fn
	select {
	case <-j.result:
	default:
	}

	select {
	case s.jobs <- j:
	case <-ctx.Done():
		s.release(j)
		return ctx.Err()
	case <-s.done:
		s.release(j)
		return ErrSequencerStopped
	}

	// 2. 已進入輸送帶就等到執行完，不因 ctx 取消而放棄，避免留下一半的結果
	select {
	case err := <-j.result:
		s.release(j)
		return err
	case <-s.done:
		select {
		case err := <-j.result:
			s.release(j)
			return err
		default:
			// 迴圈結束前沒有被處理，fn 不會執行；j 仍在 channel 中，不放回 Pool
			return ErrSequencerStopped
		}
	}
}

func (s *Sequencer) release(j *job) {
	j.fn = nil
	s.pool.Put(j)
}

func (s *Sequencer) run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			// 收到關閉信號，把剩下的操作處理完
			s.drain()
			return
		case j := <-s.jobs:
			s.process(j)
		}
	}
}

func (s *Sequencer) drain() {
	for {
		select {
		case j := <-s.jobs:
			s.process(j)
		default:
			return
		}
	}
}

// process 執行單一操作，panic 轉為錯誤回傳，避免迴圈中斷
func (s *Sequencer) process(j *job) {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("sequencer: recovered panic: %v", r)
			}
		}()
		err = j.fn()
	}()
	j.result <- err
}

var _ usecase.Executor = (*Sequencer)(nil)
