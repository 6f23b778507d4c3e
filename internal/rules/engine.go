package rules

import (
	"fmt"

	"github.com/solatis/listsmith/internal/types"
)

// Engine holds the compiled transform chain and scheme set of one build
// task. It is immutable after NewEngine and shared by every source of the
// task; per-source state lives in Packer.
type Engine struct {
	Chain   *Chain
	Schemes *SchemeSet
}

// NewEngine compiles the processors and schemes of data.
func NewEngine(data types.TaskData) (*Engine, error) {
	chain, err := CompileChain(data.Processors)
	if err != nil {
		return nil, fmt.Errorf("processors: %w", err)
	}
	schemes, err := CompileSchemes(data.Schemes)
	if err != nil {
		return nil, fmt.Errorf("schemes: %w", err)
	}
	return &Engine{Chain: chain, Schemes: schemes}, nil
}
