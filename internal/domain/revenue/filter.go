package revenue

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Source selects which settled record kinds feed the aggregation
type Source string

const (
	SourceAll      Source = "ALL"
	SourcePayments Source = "PAYMENTS"
	SourceOrders   Source = "ORDERS"
)

// Bucket is a named revenue category group
type Bucket string

const (
	BucketAll                  Bucket = "ALL"
	BucketSubscriptions        Bucket = "SUBSCRIPTIONS"
	BucketCoordinatorEventFees Bucket = "COORDINATOR_EVENT_FEES"
	BucketStudentEventFees     Bucket = "STUDENT_EVENT_FEES"
)

// UserType filters records by the paying customer's role
type UserType string

const (
	UserTypeAll       UserType = "ALL"
	UserTypeStudent   UserType = "STUDENT"
	UserTypeCoach     UserType = "COACH"
	UserTypeInstitute UserType = "INSTITUTE"
	UserTypeClub      UserType = "CLUB"
	UserTypeAdmin     UserType = "ADMIN"
)

// Date range sentinels; any other value is a day count
const (
	DateRangeYTD     = "ytd"
	DateRangeAllTime = "all"

	defaultDateRange = "30"
)

// bucketCategories maps a bucket to the underlying payment categories sent to
// the reporting API. BucketAll sends no category filter.
var bucketCategories = map[Bucket][]string{
	BucketSubscriptions:        {"REGISTRATION", "SUBSCRIPTION", "SUBSCRIPTION_MONTHLY", "SUBSCRIPTION_ANNUAL"},
	BucketCoordinatorEventFees: {"EVENT_REGISTRATION", "EVENT_FEE"},
	BucketStudentEventFees:     {"EVENT_STUDENT_FEE"},
}

// BucketCategories returns the underlying payment categories for a bucket.
// The returned slice must not be mutated.
func BucketCategories(b Bucket) []string {
	return bucketCategories[b]
}

// FilterState is an immutable value holding every filter dimension of the
// revenue view. Transitions return a new value; a half-applied combination
// can never be observed.
type FilterState struct {
	Source    Source
	Bucket    Bucket
	UserType  UserType
	Query     string
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	DateRange string
}

// DefaultFilter returns the filter state applied on view mount
func DefaultFilter() FilterState {
	return FilterState{
		Source:    SourceAll,
		Bucket:    BucketAll,
		UserType:  UserTypeAll,
		DateRange: defaultDateRange,
	}
}

// WithSource returns a copy with the source dimension replaced
func (f FilterState) WithSource(s Source) FilterState {
	f.Source = s
	return f
}

// WithBucket returns a copy with the bucket dimension replaced
func (f FilterState) WithBucket(b Bucket) FilterState {
	f.Bucket = b
	return f
}

// WithUserType returns a copy with the user-type dimension replaced
func (f FilterState) WithUserType(u UserType) FilterState {
	f.UserType = u
	return f
}

// WithQuery returns a copy with the free-text query replaced
func (f FilterState) WithQuery(q string) FilterState {
	f.Query = strings.TrimSpace(q)
	return f
}

// WithAmountRange returns a copy with the amount range replaced.
// Nil clears a bound.
func (f FilterState) WithAmountRange(min, max *decimal.Decimal) FilterState {
	f.MinAmount = copyDecimal(min)
	f.MaxAmount = copyDecimal(max)
	return f
}

// WithDateRange returns a copy with the date range replaced
func (f FilterState) WithDateRange(r string) FilterState {
	f.DateRange = r
	return f
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

// Validate rejects filter combinations that must never be dispatched.
// An inverted amount range is reported, not silently swapped.
func (f FilterState) Validate() error {
	if f.MinAmount != nil && f.MinAmount.IsNegative() {
		return fmt.Errorf("%w: minimum amount must not be negative", ErrInvalidFilter)
	}
	if f.MaxAmount != nil && f.MaxAmount.IsNegative() {
		return fmt.Errorf("%w: maximum amount must not be negative", ErrInvalidFilter)
	}
	if f.MinAmount != nil && f.MaxAmount != nil && f.MinAmount.GreaterThan(*f.MaxAmount) {
		return fmt.Errorf("%w: minimum amount exceeds maximum amount", ErrInvalidFilter)
	}
	if _, err := resolveDateRange(f.DateRange); err != nil {
		return err
	}
	return nil
}

func resolveDateRange(r string) (string, error) {
	switch r {
	case "", defaultDateRange:
		return "Last 30 Days", nil
	case DateRangeYTD:
		return "Year to Date", nil
	case DateRangeAllTime:
		return "All Time", nil
	}
	days, err := strconv.Atoi(r)
	if err != nil || days <= 0 {
		return "", fmt.Errorf("%w: malformed date range %q", ErrInvalidFilter, r)
	}
	if days == 1 {
		return "Last 1 Day", nil
	}
	return fmt.Sprintf("Last %d Days", days), nil
}

// DateRangeLabel resolves the human-readable label for the active date range
func (f FilterState) DateRangeLabel() string {
	label, err := resolveDateRange(f.DateRange)
	if err != nil {
		return f.DateRange
	}
	return label
}

// Descriptor is the canonical query descriptor for one aggregation request.
// It carries only non-default dimensions, mirroring the reporting API's
// omit-defaults query convention.
type Descriptor struct {
	DateRange    string
	Source       Source
	PaymentTypes []string
	UserTypes    []string
	Query        string
	MinAmount    *decimal.Decimal
	MaxAmount    *decimal.Decimal
}

// Descriptor derives the canonical request descriptor from the filter state
func (f FilterState) Descriptor() Descriptor {
	d := Descriptor{}
	if f.DateRange != "" && f.DateRange != defaultDateRange {
		d.DateRange = f.DateRange
	}
	if f.Source != "" && f.Source != SourceAll {
		d.Source = f.Source
	}
	if cats := bucketCategories[f.Bucket]; len(cats) > 0 {
		d.PaymentTypes = cats
	}
	if f.UserType != "" && f.UserType != UserTypeAll {
		d.UserTypes = []string{string(f.UserType)}
	}
	if f.Query != "" {
		d.Query = f.Query
	}
	d.MinAmount = copyDecimal(f.MinAmount)
	d.MaxAmount = copyDecimal(f.MaxAmount)
	return d
}

// Values encodes the descriptor as reporting API query parameters
func (d Descriptor) Values() url.Values {
	v := url.Values{}
	if d.DateRange != "" {
		v.Set("dateRange", d.DateRange)
	}
	if d.Source != "" {
		v.Set("source", string(d.Source))
	}
	if len(d.PaymentTypes) > 0 {
		v.Set("paymentTypes", strings.Join(d.PaymentTypes, ","))
	}
	if len(d.UserTypes) > 0 {
		v.Set("userTypes", strings.Join(d.UserTypes, ","))
	}
	if d.Query != "" {
		v.Set("q", d.Query)
	}
	if d.MinAmount != nil {
		v.Set("minAmount", d.MinAmount.String())
	}
	if d.MaxAmount != nil {
		v.Set("maxAmount", d.MaxAmount.String())
	}
	return v
}

// ChipKind identifies one removable filter dimension
type ChipKind string

const (
	ChipSource    ChipKind = "source"
	ChipBucket    ChipKind = "bucket"
	ChipUserType  ChipKind = "userType"
	ChipQuery     ChipKind = "query"
	ChipAmount    ChipKind = "amount"
	ChipDateRange ChipKind = "dateRange"
)

// Chip is one active filter shown to the user. Chips are a pure function of
// FilterState and are never stored separately.
type Chip struct {
	Kind  ChipKind `json:"kind"`
	Label string   `json:"label"`
}

// Chips derives the active filter chips, one per non-default dimension.
// The amount range collapses into a single chip.
func (f FilterState) Chips() []Chip {
	var chips []Chip
	if f.Source != "" && f.Source != SourceAll {
		chips = append(chips, Chip{Kind: ChipSource, Label: "Source: " + string(f.Source)})
	}
	if f.Bucket != "" && f.Bucket != BucketAll {
		chips = append(chips, Chip{Kind: ChipBucket, Label: "Category: " + BucketLabel(f.Bucket)})
	}
	if f.UserType != "" && f.UserType != UserTypeAll {
		chips = append(chips, Chip{Kind: ChipUserType, Label: "User Type: " + string(f.UserType)})
	}
	if f.Query != "" {
		chips = append(chips, Chip{Kind: ChipQuery, Label: "Search: " + f.Query})
	}
	if f.MinAmount != nil || f.MaxAmount != nil {
		chips = append(chips, Chip{Kind: ChipAmount, Label: amountChipLabel(f.MinAmount, f.MaxAmount)})
	}
	if f.DateRange != "" && f.DateRange != defaultDateRange {
		chips = append(chips, Chip{Kind: ChipDateRange, Label: "Period: " + f.DateRangeLabel()})
	}
	return chips
}

func amountChipLabel(min, max *decimal.Decimal) string {
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("Amount: %s to %s", min.StringFixed(2), max.StringFixed(2))
	case min != nil:
		return "Amount: from " + min.StringFixed(2)
	default:
		return "Amount: up to " + max.StringFixed(2)
	}
}

// ResetDimension returns a copy with exactly one dimension back at its
// default. Removing the amount chip clears both bounds.
func (f FilterState) ResetDimension(kind ChipKind) FilterState {
	def := DefaultFilter()
	switch kind {
	case ChipSource:
		f.Source = def.Source
	case ChipBucket:
		f.Bucket = def.Bucket
	case ChipUserType:
		f.UserType = def.UserType
	case ChipQuery:
		f.Query = ""
	case ChipAmount:
		f.MinAmount = nil
		f.MaxAmount = nil
	case ChipDateRange:
		f.DateRange = def.DateRange
	}
	return f
}

// BucketLabel returns the display label for a bucket
func BucketLabel(b Bucket) string {
	switch b {
	case BucketSubscriptions:
		return "Subscriptions"
	case BucketCoordinatorEventFees:
		return "Coordinator Event Fees"
	case BucketStudentEventFees:
		return "Student Event Fees"
	case BucketAll:
		return "All"
	}
	return "Other"
}
