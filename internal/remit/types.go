package remit

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/unicode/norm"
)

// PlaceholderAddress is the identity carried by the sentinel record returned
// for absent lookups: the all-zero account address.
const PlaceholderAddress Address = "GAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAWHF"

// NotFoundToken is the currency and status token of the sentinel record.
const NotFoundToken = "NOTFOUND"

// maxAddressLen bounds identity strings accepted by the ledger.
const maxAddressLen = 128

// Address identifies a party to a remittance (sender, recipient, processor).
// The ledger treats it as opaque; verifying that a caller may act as an
// address is the job of the host authorizer.
type Address string

// Validate reports whether the address is usable as an identity.
func (a Address) Validate() error {
	if a == "" {
		return fmt.Errorf("address is empty")
	}
	if len(a) > maxAddressLen {
		return fmt.Errorf("address exceeds %d bytes", maxAddressLen)
	}
	// Records are stored NFC-normalized; anything else would not read back
	// byte for byte.
	if !utf8.ValidString(string(a)) {
		return fmt.Errorf("address %q is not valid UTF-8", string(a))
	}
	if !norm.NFC.IsNormalString(string(a)) {
		return fmt.Errorf("address %q is not in Unicode normalization form C", string(a))
	}
	if strings.IndexFunc(string(a), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}) >= 0 {
		return fmt.Errorf("address %q contains whitespace or control characters", string(a))
	}
	return nil
}

// currencyPattern matches a short symbolic token: up to 32 characters from
// [A-Za-z0-9_], the alphabet of ledger symbols.
var currencyPattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,32}$`)

// Currency is a short symbolic currency token such as "USD" or "KES".
type Currency string

// Validate checks the token alphabet and length.
func (c Currency) Validate() error {
	if !currencyPattern.MatchString(string(c)) {
		return fmt.Errorf("currency %q must be 1-32 characters of [A-Za-z0-9_]", string(c))
	}
	return nil
}

// ValidateISO checks that the token is a recognized ISO 4217 code.
// Used when the ledger runs with strict currencies enabled.
func (c Currency) ValidateISO() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if _, err := currency.ParseISO(string(c)); err != nil {
		return fmt.Errorf("currency %q is not an ISO 4217 code: %w", string(c), err)
	}
	return nil
}

// Status is the lifecycle state of a remittance.
//
// The only permitted transition is StatusPending -> StatusComplete.
// StatusNotFound is the zero value and is never stored; it marks the
// sentinel record returned for absent lookups.
type Status uint8

const (
	StatusNotFound Status = iota
	StatusPending
	StatusComplete
)

// String returns the ledger token for the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusComplete:
		return "COMPLETE"
	default:
		return NotFoundToken
	}
}

// ParseStatus converts a ledger token back into a Status.
func ParseStatus(token string) (Status, error) {
	switch token {
	case "PENDING":
		return StatusPending, nil
	case "COMPLETE":
		return StatusComplete, nil
	case NotFoundToken:
		return StatusNotFound, nil
	default:
		return StatusNotFound, fmt.Errorf("unknown status %q", token)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Record is one remittance as stored in the ledger.
//
// ID is unique and 1-based; an ID of 0 only ever appears on the sentinel
// returned by NotFoundRecord. Amount and the parties are immutable after
// creation; Status is the only field the ledger rewrites.
type Record struct {
	ID        uint64
	Sender    Address
	Recipient Address
	Amount    decimal.Decimal
	Currency  Currency
	Timestamp uint64
	Status    Status
}

// NotFoundRecord returns the placeholder record that stands in for an
// absent transaction: identifier 0, NOTFOUND tokens, zero amount and the
// placeholder identity for both parties.
func NotFoundRecord() Record {
	return Record{
		ID:        0,
		Sender:    PlaceholderAddress,
		Recipient: PlaceholderAddress,
		Amount:    decimal.Zero,
		Currency:  Currency(NotFoundToken),
		Timestamp: 0,
		Status:    StatusNotFound,
	}
}

// Found reports whether r is a real record rather than the sentinel.
func (r Record) Found() bool {
	return r.ID != 0
}
