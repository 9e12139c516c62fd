package txid

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Prefix 交易編號前綴
const Prefix = "TXN"

// Generator 以 snowflake 產生遞增且唯一的交易編號
type Generator struct {
	node *snowflake.Node
}

// NewGenerator 建立產生器
//
// 參數:
//
//	nodeID: snowflake 節點編號 (0 ~ 1023)
//
// 回傳:
//
//	*Generator: 產生器
//	error: 節點編號超出範圍
func NewGenerator(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("create snowflake node %d: %w", nodeID, err)
	}
	return &Generator{node: node}, nil
}

// Next 產生下一個編號，例如 TXN1849203847561234432
func (g *Generator) Next() string {
	return Prefix + g.node.Generate().String()
}
