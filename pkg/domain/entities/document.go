package entities

// Page is the extracted text of one document page. Err is set when the
// page could not be decoded; the rest of the document remains usable.
type Page struct {
	Number int
	Text   string
	Err    error
}

// Document is a source purchase-order document as a sequence of page texts
type Document struct {
	Name  string
	Pages []Page
}
