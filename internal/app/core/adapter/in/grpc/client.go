package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/kdidiop/participant-simulateur/internal/app/core/domain"
)

// Client CompteService 的客戶端，錯誤會還原為 *domain.Error
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) call(ctx context.Context, name string, req map[string]any, out any) error {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return err
	}
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+name, in, resp); err != nil {
		return FromStatus(err)
	}
	if out == nil {
		return nil
	}
	return fromStruct(resp, out)
}

// GetAccount 查詢帳戶
func (c *Client) GetAccount(ctx context.Context, number string) (domain.Account, error) {
	var account domain.Account
	err := c.call(ctx, "GetAccount", map[string]any{"numero": number}, &account)
	return account, err
}

// ListTransactions 查詢交易
func (c *Client) ListTransactions(ctx context.Context, filter domain.TransactionFilter) (domain.TransactionPage, error) {
	req := map[string]any{
		"page":   filter.Page,
		"size":   filter.Size,
		"sort":   filter.Sort,
		"statut": string(filter.Status),
	}
	var page domain.TransactionPage
	err := c.call(ctx, "ListTransactions", req, &page)
	return page, err
}

// CreateTransaction 建立轉帳
func (c *Client) CreateTransaction(ctx context.Context, req domain.TransferRequest) (domain.Transaction, error) {
	var tx domain.Transaction
	err := c.call(ctx, "CreateTransaction", map[string]any{
		"compteDebiteur":  req.DebitAccount,
		"compteCrediteur": req.CreditAccount,
		"montant":         req.Amount,
		"motif":           req.Motif,
	}, &tx)
	return tx, err
}

// ListAliases 列出別名
func (c *Client) ListAliases(ctx context.Context, number string) ([]domain.Alias, error) {
	var out struct {
		Data []domain.Alias `json:"data"`
	}
	err := c.call(ctx, "ListAliases", map[string]any{"numero": number}, &out)
	return out.Data, err
}

// CreateAlias 建立別名
func (c *Client) CreateAlias(ctx context.Context, number string, aliasType domain.AliasType) (domain.Alias, error) {
	var alias domain.Alias
	err := c.call(ctx, "CreateAlias", map[string]any{"numero": number, "type": string(aliasType)}, &alias)
	return alias, err
}

// DeleteAlias 刪除別名
func (c *Client) DeleteAlias(ctx context.Context, number, key string) error {
	return c.call(ctx, "DeleteAlias", map[string]any{"numero": number, "cle": key}, nil)
}
