package email

import "strings"

// Request is what a collaborator hands over for one classification.
type Request struct {
	Credential string
	EmailText  string
}

// Validate rejects requests that must never reach the network.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Credential) == "" {
		return NewError(KindValidation, "Please enter your API key.", nil)
	}
	if strings.TrimSpace(r.EmailText) == "" {
		return NewError(KindValidation, "Please paste an email into the text box.", nil)
	}
	return nil
}

// Result is the outcome of one classification. Exactly one of Category or Err is meaningful:
// when Err is nil, Category holds the normalized label (possibly empty or outside the taxonomy).
type Result struct {
	ID       string
	Category Category
	Known    bool
	Err      *ClassificationError
}

func NewResult(id string, category Category) Result {
	return Result{
		ID:       id,
		Category: category,
		Known:    category.IsKnown(),
	}
}

func NewFailedResult(id string, err *ClassificationError) Result {
	return Result{ID: id, Err: err}
}

func (r Result) Failed() bool {
	return r.Err != nil
}

// DisplayCategory is what a collaborator shows for a successful result.
func (r Result) DisplayCategory() string {
	if r.Category == "" {
		return "Unknown"
	}
	return r.Category.String()
}
