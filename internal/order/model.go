package order

import (
	"strings"
	"time"
	"unicode/utf8"
)

const DateLayout = "2006-01-02"

type Order struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Status      Status      `json:"status"`
	Date        string      `json:"date"`
	Attachment  *Attachment `json:"attachment,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Attachment references a file picked on the device; the file itself is not uploaded.
type Attachment struct {
	Name     string `json:"name"`
	URI      string `json:"uri,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

type CreateOrderRequest struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
	Attachment  *Attachment `json:"attachment"`
}

func (r CreateOrderRequest) Validate() error {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return ValidationError("title is required")
	}
	if utf8.RuneCountInString(title) > 200 {
		return ValidationError("title must be at most 200 characters")
	}

	desc := strings.TrimSpace(r.Description)
	if desc == "" {
		return ValidationError("description is required")
	}
	if utf8.RuneCountInString(desc) > 5000 {
		return ValidationError("description must be at most 5000 characters")
	}

	if d := strings.TrimSpace(r.Date); d != "" {
		if _, err := time.Parse(DateLayout, d); err != nil {
			return ValidationError("date must be YYYY-MM-DD")
		}
	}

	if a := r.Attachment; a != nil {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			return ValidationError("attachment name is required")
		}
		if utf8.RuneCountInString(name) > 255 {
			return ValidationError("attachment name must be at most 255 characters")
		}
		if a.Size < 0 {
			return ValidationError("attachment size must not be negative")
		}
	}

	return nil
}

// NewOrder builds an open order from a validated request.
func NewOrder(req CreateOrderRequest, now time.Time) Order {
	now = now.UTC()
	date := strings.TrimSpace(req.Date)
	if date == "" {
		date = now.Format(DateLayout)
	}

	o := Order{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Status:      StatusOpen,
		Date:        date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Attachment != nil {
		a := *req.Attachment
		a.Name = strings.TrimSpace(a.Name)
		o.Attachment = &a
	}
	return o
}
