package article

// Metadata holds descriptive fields scraped from an article page.
type Metadata struct {
	title       string
	headings    []string
	subheadings []string
	published   []string
	modified    []string
	description string
	keywords    string
	authors     []string
}

// MetadataOption configures Metadata.
type MetadataOption func(*Metadata)

// WithTitle sets the document title.
func WithTitle(title string) MetadataOption {
	return func(m *Metadata) { m.title = title }
}

// WithHeadings sets the h1 headings.
func WithHeadings(h []string) MetadataOption {
	return func(m *Metadata) { m.headings = copyStrings(h) }
}

// WithSubheadings sets the h2 headings.
func WithSubheadings(h []string) MetadataOption {
	return func(m *Metadata) { m.subheadings = copyStrings(h) }
}

// WithPublished sets the published date values.
func WithPublished(dates []string) MetadataOption {
	return func(m *Metadata) { m.published = copyStrings(dates) }
}

// WithModified sets the modified date values.
func WithModified(dates []string) MetadataOption {
	return func(m *Metadata) { m.modified = copyStrings(dates) }
}

// WithDescription sets the description meta value.
func WithDescription(d string) MetadataOption {
	return func(m *Metadata) { m.description = d }
}

// WithKeywords sets the keywords meta value.
func WithKeywords(k string) MetadataOption {
	return func(m *Metadata) { m.keywords = k }
}

// WithAuthors sets the author blocks.
func WithAuthors(a []string) MetadataOption {
	return func(m *Metadata) { m.authors = copyStrings(a) }
}

// NewMetadata creates Metadata from options.
func NewMetadata(opts ...MetadataOption) Metadata {
	var m Metadata
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Title returns the document title.
func (m Metadata) Title() string { return m.title }

// Headings returns the h1 headings.
func (m Metadata) Headings() []string { return copyStrings(m.headings) }

// Subheadings returns the h2 headings.
func (m Metadata) Subheadings() []string { return copyStrings(m.subheadings) }

// Published returns published date values as found on the page.
func (m Metadata) Published() []string { return copyStrings(m.published) }

// Modified returns modified date values as found on the page.
func (m Metadata) Modified() []string { return copyStrings(m.modified) }

// Description returns the description meta value.
func (m Metadata) Description() string { return m.description }

// Keywords returns the keywords meta value.
func (m Metadata) Keywords() string { return m.keywords }

// Authors returns text of author, writer or journalist blocks.
func (m Metadata) Authors() []string { return copyStrings(m.authors) }

// Headline returns the best available headline: the first h1, otherwise
// the document title.
func (m Metadata) Headline() string {
	for _, h := range m.headings {
		if h != "" {
			return h
		}
	}
	return m.title
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
