package export

// Renderer turns a table into a downloadable file.
type Renderer interface {
	Render(Table) ([]byte, error)
	ContentType() string
	Extension() string
}
