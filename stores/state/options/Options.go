package options

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// ListOptions pages through a prefix listing. Pages count from 1.
type ListOptions struct {
	Page  int
	Limit int
}

type ListOption func(*ListOptions)

func WithPage(page int) ListOption {
	return func(o *ListOptions) {
		o.Page = page
	}
}

func WithLimit(limit int) ListOption {
	return func(o *ListOptions) {
		o.Limit = limit
	}
}

func NewListOptions(opts ...ListOption) *ListOptions {
	o := &ListOptions{Page: 1, Limit: DefaultLimit}

	for _, opt := range opts {
		opt(o)
	}

	if o.Page < 1 {
		o.Page = 1
	}

	if o.Limit < 1 {
		o.Limit = DefaultLimit
	}

	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}

	return o
}

// Offset is the number of items skipped before this page.
func (o *ListOptions) Offset() int {
	return (o.Page - 1) * o.Limit
}

// Window returns the slice bounds of this page within total items.
func (o *ListOptions) Window(total int) (int, int) {
	start := o.Offset()
	if start > total {
		start = total
	}

	end := start + o.Limit
	if end > total {
		end = total
	}

	return start, end
}
