package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/kdidiop/participant-simulateur/internal/app/core/domain"
	"github.com/kdidiop/participant-simulateur/internal/app/core/usecase"
)

// IDGenerator 交易編號產生器
type IDGenerator interface {
	Next() string
}

// TransactionStore 記憶體交易紀錄，只新增不修改
type TransactionStore struct {
	mu           sync.RWMutex
	transactions []domain.Transaction
	ids          IDGenerator
	opts         options
}

// NewTransactionStore 建立交易紀錄
//
// 參數:
//
//	ids: 交易編號產生器
//	seed: 初始交易
//	opts: 時間來源等選項
func NewTransactionStore(ids IDGenerator, seed []domain.Transaction, opts ...Option) *TransactionStore {
	transactions := make([]domain.Transaction, len(seed))
	copy(transactions, seed)
	return &TransactionStore{
		transactions: transactions,
		ids:          ids,
		opts:         buildOptions(opts),
	}
}

// Append 新增交易，不做驗證
func (s *TransactionStore) Append(ctx context.Context, req domain.TransferRequest) (domain.Transaction, error) {
	tx := domain.Transaction{
		TxID:          s.ids.Next(),
		Status:        domain.TransactionStatusInitiated,
		CreatedAt:     s.opts.now(),
		DebitAccount:  req.DebitAccount,
		CreditAccount: req.CreditAccount,
		Amount:        req.Amount,
		Motif:         req.MotifOrDefault(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, tx)
	return tx, nil
}

// Query 過濾、排序、分頁
//
// 參數:
//
//	ctx: 上下文
//	filter: 查詢條件，Page/Size 需已驗證
//
// 回傳:
//
//	domain.TransactionPage: 當頁資料與分頁資訊
func (s *TransactionStore) Query(ctx context.Context, filter domain.TransactionFilter) domain.TransactionPage {
	filter = filter.WithDefaults()

	// 1. 過濾 (複製一份，避免排序影響原始資料)
	s.mu.RLock()
	rows := make([]domain.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		if filter.Status != "" && tx.Status != filter.Status {
			continue
		}
		rows = append(rows, tx)
	}
	s.mu.RUnlock()

	// 2. 排序
	slices.SortStableFunc(rows, transactionComparator(filter.Sort))

	// 3. 分頁
	total := len(rows)
	offset := (filter.Page - 1) * filter.Size
	data := make([]domain.Transaction, 0, filter.Size)
	if offset < total {
		end := min(offset+filter.Size, total)
		data = append(data, rows[offset:end]...)
	}

	meta := domain.PageMeta{Total: total, Page: filter.Page, Size: filter.Size}
	if offset+filter.Size < total {
		next := filter.Page + 1
		meta.Next = &next
	}
	if filter.Page > 1 {
		prev := filter.Page - 1
		meta.Prev = &prev
	}
	return domain.TransactionPage{Data: data, Meta: meta}
}

// transactionComparator sort 格式為欄位名稱，前綴 "-" 表示遞減
// dateCreation 以時間比較，montant 以數值比較，其他欄位視為相等；
// 相等時一律以 txId 遞增排序
func transactionComparator(sort string) func(a, b domain.Transaction) int {
	desc := strings.HasPrefix(sort, "-")
	field := strings.TrimPrefix(sort, "-")

	return func(a, b domain.Transaction) int {
		var c int
		switch field {
		case "dateCreation":
			c = a.CreatedAt.Compare(b.CreatedAt)
		case "montant":
			c = cmp.Compare(a.Amount, b.Amount)
		}
		if desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return strings.Compare(a.TxID, b.TxID)
	}
}

var _ usecase.TransactionStore = (*TransactionStore)(nil)
