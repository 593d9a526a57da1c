package data

import (
	"encoding/json"
	"fmt"
	"strings"

	rdperrors "github.com/jrsteele09/rdp-proxy/internal/errors"
)

// Target selects what a RIC is mapped to by the symbology lookup.
type Target int

const (
	// TargetSymbology maps to ISIN and exchange ticker.
	TargetSymbology Target = iota
	// TargetPermID maps to the organization Perm ID.
	TargetPermID
)

func (t Target) String() string {
	switch t {
	case TargetSymbology:
		return "ISIN"
	case TargetPermID:
		return "PermID"
	default:
		return fmt.Sprintf("Target(%d)", int(t))
	}
}

// ParseTarget accepts "ISIN" or "symbology" and "PermID", case-insensitively.
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "isin", "symbology":
		return TargetSymbology, nil
	case "permid":
		return TargetPermID, nil
	default:
		return 0, rdperrors.Wrapf(rdperrors.ErrUnknownTarget, "%q", s)
	}
}

// IdentifierSet is one entry of the "from" or "to" list of a lookup.
type IdentifierSet struct {
	ObjectTypes     []string `json:"objectTypes,omitempty"`
	IdentifierTypes []string `json:"identifierTypes"`
	Values          []string `json:"values,omitempty"`
}

// SymbologyRequest is the body posted to the symbology lookup endpoint.
type SymbologyRequest struct {
	From      []IdentifierSet `json:"from"`
	To        []IdentifierSet `json:"to"`
	Reference []string        `json:"reference"`
	Type      string          `json:"type"`
}

var symbologyReference = []string{"name", "status", "classification"}

// NewSymbologyRequest always looks up from a RIC with automatic resolution.
func NewSymbologyRequest(symbol string, target Target) (SymbologyRequest, error) {
	var to []IdentifierSet
	switch target {
	case TargetSymbology:
		to = []IdentifierSet{{IdentifierTypes: []string{"ISIN", "ExchangeTicker"}}}
	case TargetPermID:
		to = []IdentifierSet{{ObjectTypes: []string{"organization"}, IdentifierTypes: []string{"PermID"}}}
	default:
		return SymbologyRequest{}, rdperrors.Wrapf(rdperrors.ErrUnknownTarget, "%s", target)
	}
	return SymbologyRequest{
		From:      []IdentifierSet{{IdentifierTypes: []string{"RIC"}, Values: []string{symbol}}},
		To:        to,
		Reference: append([]string(nil), symbologyReference...),
		Type:      "auto",
	}, nil
}

// Identifier is one resolved or input identifier.
type Identifier struct {
	Value          string `json:"value"`
	IdentifierType string `json:"identifierType,omitempty"`
	ObjectType     string `json:"objectType,omitempty"`
	Name           string `json:"name,omitempty"`
	Status         string `json:"status,omitempty"`
}

type SymbologyMatch struct {
	Input  []Identifier `json:"input"`
	Output []Identifier `json:"output"`
}

// SymbologyResponse keeps the raw body for display next to the decoded matches.
type SymbologyResponse struct {
	Data []SymbologyMatch `json:"data"`
	raw  json.RawMessage
}

func (r *SymbologyResponse) UnmarshalJSON(b []byte) error {
	type plain SymbologyResponse
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = SymbologyResponse(p)
	r.raw = append(json.RawMessage(nil), b...)
	return nil
}

// MarshalJSON returns the body exactly as the platform sent it.
func (r SymbologyResponse) MarshalJSON() ([]byte, error) {
	if r.raw != nil {
		return r.raw, nil
	}
	type plain SymbologyResponse
	return json.Marshal(plain(r))
}
