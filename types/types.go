package types

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// TokenPath is the ordered list of tokens a swap routes through.
type TokenPath []common.Address

// Validate checks that the path has at least two hops and no repeated
// consecutive token.
func (p TokenPath) Validate() error {
	if len(p) < 2 {
		return fmt.Errorf("path must contain at least 2 tokens, got %d", len(p))
	}
	for i := 1; i < len(p); i++ {
		if p[i] == p[i-1] {
			return fmt.Errorf("path repeats token %s at position %d", p[i].Hex(), i)
		}
	}
	return nil
}

// First returns the input token of the path.
func (p TokenPath) First() common.Address {
	if len(p) == 0 {
		return common.Address{}
	}
	return p[0]
}

// Last returns the output token of the path.
func (p TokenPath) Last() common.Address {
	if len(p) == 0 {
		return common.Address{}
	}
	return p[len(p)-1]
}

func (p TokenPath) String() string {
	hops := make([]string, len(p))
	for i, token := range p {
		hops[i] = token.Hex()
	}
	return strings.Join(hops, "->")
}

// Quote is the priced result of a path on one venue: one amount per path
// position, the last of which is the amount received.
type Quote struct {
	Venue   string
	Path    TokenPath
	Amounts []*big.Int
}

// NewQuote validates the raw amounts a venue returned for path.
func NewQuote(venue string, path TokenPath, amounts []*big.Int) (*Quote, error) {
	if len(amounts) != len(path) {
		return nil, fmt.Errorf("venue %s returned %d amounts for a %d token path", venue, len(amounts), len(path))
	}
	for i, amount := range amounts {
		if amount == nil || amount.Sign() < 0 {
			return nil, fmt.Errorf("venue %s returned invalid amount at position %d", venue, i)
		}
	}
	return &Quote{Venue: venue, Path: path, Amounts: amounts}, nil
}

// AmountIn returns the amount quoted at the first path position.
func (q *Quote) AmountIn() *big.Int {
	return q.Amounts[0]
}

// Received returns the amount quoted at the last path position.
func (q *Quote) Received() *big.Int {
	return q.Amounts[len(q.Amounts)-1]
}

// OpportunityEvaluation is the result of pricing one venue ordering for one
// cycle. Cost fields are nil when the gross profit did not clear the
// threshold and cost estimation was skipped.
type OpportunityEvaluation struct {
	Route       string
	Source      string
	Destination string
	TradeSize   *big.Int
	Outbound    *Quote
	Return      *Quote
	GrossProfit *big.Int

	CostsEstimated bool
	GasEstimate    uint64
	GasPrice       *big.Int
	NetworkFeeWei  *big.Int
	NetworkFee     *big.Int
	BorrowingFee   *big.Int
	NetProfit      *big.Int

	Execute bool
}

// OutcomeStatus classifies an execution request.
type OutcomeStatus int

const (
	OutcomeSkipped OutcomeStatus = iota
	OutcomeConfirmed
	OutcomeReverted
	OutcomeFailed
)

func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeReverted:
		return "reverted"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ExecutionOutcome is the classified result of asking the settlement
// contract to execute an opportunity.
type ExecutionOutcome struct {
	Status      OutcomeStatus
	TxHash      common.Hash
	Reason      string
	Err         error
	GasUsed     uint64
	BlockNumber *big.Int
}

// Skipped builds an outcome for a request that never reached the network.
func Skipped(reason string) *ExecutionOutcome {
	return &ExecutionOutcome{Status: OutcomeSkipped, Reason: reason}
}

// Failed builds an outcome for a submission the provider rejected or lost.
func Failed(txHash common.Hash, err error) *ExecutionOutcome {
	return &ExecutionOutcome{Status: OutcomeFailed, TxHash: txHash, Err: err}
}

// ErrorKind tags the stage an evaluation failed in.
type ErrorKind int

const (
	QuoteUnavailable ErrorKind = iota
	FeeRateUnavailable
	CostEstimation
)

func (k ErrorKind) String() string {
	switch k {
	case QuoteUnavailable:
		return "quote_unavailable"
	case FeeRateUnavailable:
		return "fee_rate_unavailable"
	case CostEstimation:
		return "cost_estimation"
	default:
		return "unknown"
	}
}

// EvaluationError reports why one ordering produced no opportunity. It is
// never fatal to the cycle.
type EvaluationError struct {
	Kind  ErrorKind
	Venue string
	Err   error
}

func (e *EvaluationError) Error() string {
	if e.Venue != "" {
		return fmt.Sprintf("%s on %s: %v", e.Kind, e.Venue, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// IsEvaluationError reports whether err is an EvaluationError of the given kind.
func IsEvaluationError(err error, kind ErrorKind) bool {
	var evalErr *EvaluationError
	return errors.As(err, &evalErr) && evalErr.Kind == kind
}
