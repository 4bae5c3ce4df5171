package model

// Pool represents a tracked liquidity pool. The pool set is loaded once at
// startup and is immutable for the lifetime of the process.
type Pool struct {
	Address     string `json:"address" mapstructure:"address"`
	Pair        string `json:"pair" mapstructure:"pair"`
	DecimalsA   uint8  `json:"decimals_a" mapstructure:"decimals_a"`
	DecimalsB   uint8  `json:"decimals_b" mapstructure:"decimals_b"`
	TickSpacing int32  `json:"tick_spacing" mapstructure:"tick_spacing"`
}
