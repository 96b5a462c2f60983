package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// MaxCategoryNameLength is the longest accepted category name, in runes.
const MaxCategoryNameLength = 20

type (
	// TransactionType distinguishes income from expense. A category belongs to exactly one.
	TransactionType string

	// Category groups transactions. It is identified by (Name, Type) within a user.
	Category struct {
		UserID    string
		Name      string
		Icon      string // single emoji glyph
		Type      TransactionType
		CreatedAt time.Time
	}

	CreateCategoryInput struct {
		Type TransactionType
		Name string
		Icon string
	}

	DeleteCategoryInput struct {
		Name string
		Type TransactionType
	}

	// FieldErrors maps a form field name to its validation error.
	FieldErrors map[string]error
)

var (
	ErrEmptyName        = errors.New("name is required")
	ErrNameTooLong      = errors.New("name too long (max 20 characters)")
	ErrMissingIcon      = errors.New("icon is required")
	ErrInvalidIcon      = errors.New("icon must be a single emoji")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrCategoryExists   = errors.New("category already exists")
	ErrCategoryNotFound = errors.New("category not found")
)

// ParseTransactionType accepts "income" or "expense", case-insensitively.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", ErrInvalidType
	}
	return t, nil
}

func (t TransactionType) IsValid() bool {
	switch t {
	case Income, Expense:
		return true
	default:
		return false
	}
}

func (t TransactionType) String() string {
	return string(t)
}

// Identifier is the key used for notifications about this category.
func (c Category) Identifier() string {
	return c.Name + "-" + string(c.Type)
}

// Normalized returns the input with surrounding whitespace removed.
func (in CreateCategoryInput) Normalized() CreateCategoryInput {
	return CreateCategoryInput{
		Type: in.Type,
		Name: strings.TrimSpace(in.Name),
		Icon: strings.TrimSpace(in.Icon),
	}
}

// Validate checks every field and reports all failures at once. A nil map means valid.
func (in CreateCategoryInput) Validate() FieldErrors {
	errs := FieldErrors{}
	if !in.Type.IsValid() {
		errs["type"] = ErrInvalidType
	}
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		errs["name"] = ErrEmptyName
	case utf8.RuneCountInString(name) > MaxCategoryNameLength:
		errs["name"] = ErrNameTooLong
	}
	if err := ValidateIcon(in.Icon); err != nil {
		errs["icon"] = err
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (in DeleteCategoryInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrEmptyName
	}
	if !in.Type.IsValid() {
		return ErrInvalidType
	}
	return nil
}

// ValidateIcon accepts exactly one grapheme cluster that is not plain text.
func ValidateIcon(icon string) error {
	icon = strings.TrimSpace(icon)
	if icon == "" {
		return ErrMissingIcon
	}
	if uniseg.GraphemeClusterCount(icon) != 1 {
		return ErrInvalidIcon
	}
	r, _ := utf8.DecodeRuneInString(icon)
	if r < 0x80 && len(icon) == 1 {
		return ErrInvalidIcon
	}
	return nil
}

// Error joins the field errors in a stable order for logs.
func (fe FieldErrors) Error() string {
	var parts []string
	for _, field := range []string{"type", "name", "icon"} {
		if err, ok := fe[field]; ok {
			parts = append(parts, field+": "+err.Error())
		}
	}
	return strings.Join(parts, "; ")
}

// Message returns the error text for a field, or "" when the field is valid.
func (fe FieldErrors) Message(field string) string {
	if err, ok := fe[field]; ok && err != nil {
		return err.Error()
	}
	return ""
}
