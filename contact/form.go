package contact

import "fmt"

// Field names one of the five inputs of the contact form.
type Field string

const (
	FirstName Field = "firstName"
	LastName  Field = "lastName"
	Email     Field = "email"
	Subject   Field = "subject"
	Message   Field = "message"
)

// Fields lists every form field in display order.
var Fields = []Field{FirstName, LastName, Email, Subject, Message}

// ParseField maps a form input name to a Field.
func ParseField(name string) (Field, error) {
	for _, f := range Fields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Form holds the values typed into the contact form. The JSON encoding is
// the request body sent to the contact endpoint.
type Form struct {
	FirstName string `json:"firstName" form:"firstName"`
	LastName  string `json:"lastName" form:"lastName"`
	Email     string `json:"email" form:"email"`
	Subject   string `json:"subject" form:"subject"`
	Message   string `json:"message" form:"message"`
}

// Get returns the value of a single field.
func (f Form) Get(field Field) string {
	switch field {
	case FirstName:
		return f.FirstName
	case LastName:
		return f.LastName
	case Email:
		return f.Email
	case Subject:
		return f.Subject
	case Message:
		return f.Message
	}
	return ""
}

// With returns a copy of the form with one field replaced.
func (f Form) With(field Field, value string) (Form, error) {
	switch field {
	case FirstName:
		f.FirstName = value
	case LastName:
		f.LastName = value
	case Email:
		f.Email = value
	case Subject:
		f.Subject = value
	case Message:
		f.Message = value
	default:
		return f, fmt.Errorf("%w: %q", ErrUnknownField, string(field))
	}
	return f, nil
}

// IsZero reports whether every field is empty.
func (f Form) IsZero() bool {
	return f == Form{}
}
