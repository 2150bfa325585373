package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/wonny/aegis-valuation/internal/contracts"
)

// ErrNotFound is returned when no snapshot exists for a code / as-of date
var ErrNotFound = errors.New("snapshot not found")

// ErrInvalid wraps structural validation failures of a decoded snapshot
var ErrInvalid = errors.New("invalid snapshot")

var validate = validator.New()

// Decode reads one JSON snapshot and checks its contract
func Decode(r io.Reader) (*contracts.AnalysisSnapshot, error) {
	var snap contracts.AnalysisSnapshot
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := Check(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ReadFile decodes a snapshot from a JSON file
func ReadFile(path string) (*contracts.AnalysisSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	defer f.Close()

	snap, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// Check runs struct-tag validation and the time-series ordering contract
func Check(snap *contracts.AnalysisSnapshot) error {
	if err := validate.Struct(snap); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed on %q", ErrInvalid, verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if snap.Statements.PnL == nil && snap.Statements.BalanceSheet == nil && snap.Statements.CashFlow == nil {
		snap.Statements = contracts.NewStatements()
	}
	return nil
}
