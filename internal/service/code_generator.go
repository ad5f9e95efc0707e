package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"github.com/ledgerline/crm-api/internal/metrics"
	"github.com/ledgerline/crm-api/internal/repository"
	"go.uber.org/zap"
)

// CodeWidth is the minimum number of digits in a generated code
const CodeWidth = 3

// CodeStrategy selects how the next code is derived
type CodeStrategy string

const (
	// CodeStrategyLatest increments the code of the most recently created row.
	CodeStrategyLatest CodeStrategy = "latest"
	// CodeStrategySequence draws from the locked code_sequences counter.
	CodeStrategySequence CodeStrategy = "sequence"
)

// CodeSpec names the prefix and column of one coded entity
type CodeSpec struct {
	Prefix string
	Column string
}

var (
	ClientCodes     = CodeSpec{Prefix: "C", Column: "client_code"}
	VendorCodes     = CodeSpec{Prefix: "V", Column: "vendor_code"}
	QuoteNumbers    = CodeSpec{Prefix: "Q", Column: "quote_number"}
	SalesOrderCodes = CodeSpec{Prefix: "SO", Column: "order_number"}
)

// CodeSource reads existing codes of one entity table
type CodeSource interface {
	LatestCode(ctx context.Context, column string) (string, error)
	Codes(ctx context.Context, column string) ([]string, error)
}

var (
	codePatternsMu sync.Mutex
	codePatterns   = map[string]*regexp.Regexp{}
)

func codePattern(prefix string) *regexp.Regexp {
	codePatternsMu.Lock()
	defer codePatternsMu.Unlock()
	re, ok := codePatterns[prefix]
	if !ok {
		re = regexp.MustCompile("^" + regexp.QuoteMeta(prefix) + `(\d+)$`)
		codePatterns[prefix] = re
	}
	return re
}

// FormatCode renders prefix followed by n zero-padded to CodeWidth digits.
// Wider numbers are never truncated.
func FormatCode(prefix string, n int64) string {
	return fmt.Sprintf("%s%0*d", prefix, CodeWidth, n)
}

// ParseCode extracts the numeric suffix of code, reporting false when code
// does not have the form prefix followed by digits.
func ParseCode(prefix, code string) (int64, bool) {
	m := codePattern(prefix).FindStringSubmatch(code)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// NextCodeFromLatest returns the code following lastCode. A read error, a
// missing row or a malformed code all yield prefix + "001".
func NextCodeFromLatest(prefix, lastCode string, err error) string {
	if err != nil || lastCode == "" {
		return FormatCode(prefix, 1)
	}
	n, ok := ParseCode(prefix, lastCode)
	if !ok {
		return FormatCode(prefix, 1)
	}
	return FormatCode(prefix, n+1)
}

// CodeGenerator hands out human-readable entity codes
type CodeGenerator struct {
	sequences *repository.CodeSequenceRepository
	strategy  CodeStrategy
	logger    *zap.Logger
}

// NewCodeGenerator creates a generator. A nil sequence repository forces the latest strategy.
func NewCodeGenerator(sequences *repository.CodeSequenceRepository, strategy CodeStrategy, logger *zap.Logger) *CodeGenerator {
	if sequences == nil || strategy != CodeStrategySequence {
		strategy = CodeStrategyLatest
	}
	return &CodeGenerator{sequences: sequences, strategy: strategy, logger: logger}
}

// Strategy returns the effective strategy
func (g *CodeGenerator) Strategy() CodeStrategy {
	return g.strategy
}

// Next returns the next code for spec. It never fails: when the sequence is
// unavailable the latest-row rule is used instead.
func (g *CodeGenerator) Next(ctx context.Context, spec CodeSpec, src CodeSource) string {
	latest, err := src.LatestCode(ctx, spec.Column)
	fallback := NextCodeFromLatest(spec.Prefix, latest, err)

	if g.strategy != CodeStrategySequence {
		metrics.ObserveCodeGenerated(spec.Prefix, string(CodeStrategyLatest))
		return fallback
	}

	var floor int64
	if err == nil {
		floor, _ = ParseCode(spec.Prefix, latest)
	}
	value, seqErr := g.sequences.NextValue(ctx, spec.Prefix, floor)
	if seqErr != nil {
		g.logger.Warn("code sequence unavailable, using latest row",
			zap.String("prefix", spec.Prefix),
			zap.String("code", fallback),
			zap.Error(seqErr),
		)
		metrics.ObserveCodeGenerated(spec.Prefix, "fallback")
		return fallback
	}

	code := FormatCode(spec.Prefix, value)
	metrics.ObserveCodeGenerated(spec.Prefix, string(CodeStrategySequence))
	g.logger.Debug("code generated", zap.String("prefix", spec.Prefix), zap.String("code", code))
	return code
}

// Reconcile raises the sequence for spec to the highest existing code.
// It returns the highest code value seen and whether the sequence moved.
func (g *CodeGenerator) Reconcile(ctx context.Context, spec CodeSpec, src CodeSource) (int64, bool, error) {
	if g.sequences == nil {
		return 0, false, nil
	}
	codes, err := src.Codes(ctx, spec.Column)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read %s codes: %w", spec.Prefix, err)
	}

	var highest int64
	for _, code := range codes {
		if n, ok := ParseCode(spec.Prefix, code); ok && n > highest {
			highest = n
		}
	}

	raised, err := g.sequences.Raise(ctx, spec.Prefix, highest)
	if err != nil {
		return highest, false, fmt.Errorf("failed to raise %s sequence: %w", spec.Prefix, err)
	}
	return highest, raised, nil
}
