package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// FlowKind identifies which ledger model a gateway reference belongs to.
type FlowKind int

const (
	FlowUnknown FlowKind = iota
	FlowBulkOrder
	FlowSimpleOrder
)

func (k FlowKind) String() string {
	switch k {
	case FlowBulkOrder:
		return "bulk_order"
	case FlowSimpleOrder:
		return "simple_order"
	default:
		return "unknown"
	}
}

const (
	BulkReferencePrefix = "ORDER-"
	FlowTagPayment      = "PAY"

	randomSegmentLength = 8
	referenceAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	uuidLength          = 36
)

// {PREFIX}-{TAG}-{RANDOM} or the legacy {PREFIX}-{RANDOM}.
var simpleReferencePattern = regexp.MustCompile(`^([A-Z0-9]{1,10})-(?:([A-Z]{2,5})-)?([A-Z0-9]{8})$`)

// ParsedReference is the structured view of a gateway reference.
type ParsedReference struct {
	Kind FlowKind
	Raw  string

	// Simple-order references.
	Prefix string
	Tag    string

	// Bulk-order references.
	ParentID uuid.UUID
	ChildID  uuid.UUID
}

// MalformedReferenceError is returned for any reference matching neither
// known encoding.
type MalformedReferenceError struct {
	Reference string
	Reason    string
}

func (e *MalformedReferenceError) Error() string {
	return fmt.Sprintf("malformed reference %q: %s", e.Reference, e.Reason)
}

// DecodeReference never panics; every input yields either a parsed
// reference or a *MalformedReferenceError.
func DecodeReference(reference string) (ParsedReference, error) {
	malformed := func(reason string) (ParsedReference, error) {
		return ParsedReference{}, &MalformedReferenceError{Reference: reference, Reason: reason}
	}

	if reference == "" {
		return malformed("empty reference")
	}

	if rest, ok := strings.CutPrefix(reference, BulkReferencePrefix); ok {
		if len(rest) != 2*uuidLength+1 || rest[uuidLength] != '-' {
			return malformed("bulk reference must carry a parent and a child identifier")
		}
		parentID, err := uuid.Parse(rest[:uuidLength])
		if err != nil {
			return malformed("invalid parent identifier")
		}
		childID, err := uuid.Parse(rest[uuidLength+1:])
		if err != nil {
			return malformed("invalid child identifier")
		}
		return ParsedReference{
			Kind:     FlowBulkOrder,
			Raw:      reference,
			ParentID: parentID,
			ChildID:  childID,
		}, nil
	}

	m := simpleReferencePattern.FindStringSubmatch(reference)
	if m == nil {
		return malformed("unrecognised reference shape")
	}
	return ParsedReference{
		Kind:   FlowSimpleOrder,
		Raw:    reference,
		Prefix: m[1],
		Tag:    m[2],
	}, nil
}

// EncodeBulkReference builds ORDER-{parent}-{child}.
func EncodeBulkReference(parentID, childID uuid.UUID) string {
	return BulkReferencePrefix + parentID.String() + "-" + childID.String()
}

// ReferenceScope carries what a generated reference is derived from.
type ReferenceScope struct {
	Prefix   string
	Tag      string
	ParentID uuid.UUID
	ChildID  uuid.UUID
}

// GenerateReference returns a candidate reference for the given flow.
// Simple-order candidates are random; callers persist them under a unique
// constraint and re-roll on conflict.
func GenerateReference(kind FlowKind, scope ReferenceScope) (string, error) {
	switch kind {
	case FlowBulkOrder:
		if scope.ParentID == uuid.Nil || scope.ChildID == uuid.Nil {
			return "", NewMissingRequiredFieldError("bulk reference identifiers")
		}
		return EncodeBulkReference(scope.ParentID, scope.ChildID), nil
	case FlowSimpleOrder:
		prefix := strings.ToUpper(scope.Prefix)
		if prefix == "" {
			return "", NewMissingRequiredFieldError("reference prefix")
		}
		tag := scope.Tag
		if tag == "" {
			tag = FlowTagPayment
		}
		random, err := RandomCode(randomSegmentLength)
		if err != nil {
			return "", err
		}
		return prefix + "-" + tag + "-" + random, nil
	default:
		return "", fmt.Errorf("cannot generate reference for flow %s", kind)
	}
}

// RandomCode returns n characters drawn from A-Z0-9.
func RandomCode(n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	limit := big.NewInt(int64(len(referenceAlphabet)))
	for range n {
		i, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		b.WriteByte(referenceAlphabet[i.Int64()])
	}
	return b.String(), nil
}

func GenerateCouponCode() (string, error) {
	return RandomCode(randomSegmentLength)
}
