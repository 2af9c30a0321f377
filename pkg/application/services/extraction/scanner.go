package extraction

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/vsinha/poimport/pkg/domain/entities"
)

const scanStage = "scan"

var (
	orderNumberPattern  = regexp.MustCompile(`(?i)PO\s*No\.?\s*:?\s*(\d+)`)
	destinationPattern  = regexp.MustCompile(`(?i)Store\s*:?\s*(.*?)\s*-\s*(\d{3})\b`)
	orderDatePattern    = regexp.MustCompile(`(?i)Order\s*Date\s*:?\s*(\d{1,2}/\d{1,2}/\d{4})`)
	deliveryDatePattern = regexp.MustCompile(`(?i)Delivery\s*Date.*?:?\s*(\d{1,2}/\d{1,2}/\d{4})`)
	sizePackPattern     = regexp.MustCompile(`(\d+(?:\.\d+)?[a-zA-Z]*\d*[a-zA-Z]*)/(\d+(?:\.\d+)?)`)
	numericPattern      = regexp.MustCompile(`^(?:\d+|\d{1,3}(?:,\d{3})+)(?:\.\d+)?$`)
)

// Config holds configuration for the document scanner
type Config struct {
	// ReferenceLength is the number of digits in an item line's leading reference code
	ReferenceLength int
	Logger          *slog.Logger
}

// DefaultConfig returns the scanner configuration for six-digit reference codes
func DefaultConfig() Config {
	return Config{ReferenceLength: 6}
}

// Scanner turns page text into raw purchase-order lines
type Scanner struct {
	refLength   int
	itemPattern *regexp.Regexp
	logger      *slog.Logger
}

// NewScanner creates a scanner
func NewScanner(config Config) *Scanner {
	if config.ReferenceLength <= 0 {
		config.ReferenceLength = 6
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scanner{
		refLength:   config.ReferenceLength,
		itemPattern: regexp.MustCompile(fmt.Sprintf(`^\d{%d}\b`, config.ReferenceLength)),
		logger:      logger,
	}
}

// documentState is the header context carried forward across lines of one document
type documentState struct {
	orderNumber     entities.OrderNumber
	destinationID   entities.DestinationID
	destinationName string
	orderDate       string
	deliveryDate    string
	layout          *ColumnLayout
}

func (st *documentState) capture(line string) {
	if m := orderNumberPattern.FindStringSubmatch(line); m != nil {
		st.orderNumber = entities.OrderNumber(m[1])
	}
	if m := destinationPattern.FindStringSubmatch(line); m != nil {
		st.destinationName = strings.TrimSpace(m[1])
		st.destinationID = entities.DestinationID(m[2])
	}
	if m := orderDatePattern.FindStringSubmatch(line); m != nil {
		st.orderDate = m[1]
	}
	if m := deliveryDatePattern.FindStringSubmatch(line); m != nil {
		st.deliveryDate = m[1]
	}
}

// Scan extracts raw lines from one document. Undecodable pages and
// unparseable item lines are skipped and reported; scanning continues.
func (s *Scanner) Scan(doc *entities.Document) ([]*entities.RawLine, entities.Diagnostics) {
	lines := make([]*entities.RawLine, 0)
	diags := make(entities.Diagnostics, 0)
	state := &documentState{}

	for _, page := range doc.Pages {
		if page.Err != nil {
			diags = append(diags, s.diagnostic(doc.Name, page.Number, 0, "", fmt.Sprintf("page could not be decoded: %v", page.Err)))
			continue
		}
		if strings.TrimSpace(page.Text) == "" {
			diags = append(diags, s.diagnostic(doc.Name, page.Number, 0, "", "no text found on page"))
			continue
		}

		pageLines := strings.Split(page.Text, "\n")
		for i, text := range pageLines {
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}

			state.capture(text)
			if state.orderNumber == "" || !s.itemPattern.MatchString(text) {
				if layout, ok := ParseColumnLayout(text); ok {
					state.layout = layout
				}
				continue
			}

			next := ""
			if i+1 < len(pageLines) {
				next = strings.TrimSpace(pageLines[i+1])
			}

			raw, err := s.parseItem(text, next, state)
			if err != nil {
				s.logger.Debug("skipping item line", "document", doc.Name, "page", page.Number, "line", i+1, "error", err)
				diags = append(diags, s.diagnostic(doc.Name, page.Number, i+1, entities.ReferenceCode(text[:s.refLength]), err.Error()))
				continue
			}
			raw.Document = doc.Name
			raw.Page = page.Number
			raw.LineNumber = i + 1
			lines = append(lines, raw)
		}
	}

	s.logger.Info("scanned document", "document", doc.Name, "pages", len(doc.Pages), "lines", len(lines), "diagnostics", len(diags))
	return lines, diags
}

func (s *Scanner) parseItem(line, next string, state *documentState) (*entities.RawLine, error) {
	parts := strings.Fields(line)
	if len(parts) < 3 {
		return nil, fmt.Errorf("item line has %d tokens, need at least 3", len(parts))
	}
	ref := entities.ReferenceCode(line[:s.refLength])

	var size, pack, description string
	if m := sizePackPattern.FindStringSubmatchIndex(line); m != nil {
		size = line[m[2]:m[3]]
		pack = line[m[4]:m[5]]
		if m[0] > 0 {
			words := strings.Fields(line[:m[0]])
			if len(words) > 1 {
				description = strings.Join(words[1:], " ")
			}
		}
	}

	if next != "" && hasNonLatinLetters(next) && !s.itemPattern.MatchString(next) {
		if description == "" {
			description = next
		} else {
			description = description + " " + next
		}
	}

	var numbers []string
	for _, part := range parts[1:] {
		if strings.Contains(part, "/") {
			continue
		}
		if numericPattern.MatchString(part) {
			numbers = append(numbers, part)
		}
	}

	raw := &entities.RawLine{
		DestinationID:   state.destinationID,
		DestinationName: state.destinationName,
		OrderNumber:     state.orderNumber,
		OrderDate:       state.orderDate,
		DeliveryDate:    state.deliveryDate,
		Reference:       ref,
		Description:     description,
		Size:            size,
		Pack:            pack,
	}

	if qty, price, amount, ok := state.layout.Resolve(numbers); ok {
		raw.OrderedQty, raw.Price, raw.Amount = qty, price, amount
		return raw, nil
	}

	n := len(numbers)
	switch {
	case n >= 3:
		raw.OrderedQty, raw.Price, raw.Amount = numbers[n-3], numbers[n-2], numbers[n-1]
	case n == 2:
		raw.OrderedQty, raw.Price = numbers[0], numbers[1]
	default:
		return nil, fmt.Errorf("found %d numeric tokens, need at least 2", n)
	}
	raw.Heuristic = true
	return raw, nil
}

func (s *Scanner) diagnostic(doc string, page, line int, ref entities.ReferenceCode, msg string) entities.Diagnostic {
	return entities.Diagnostic{
		Kind:      entities.ExtractionError,
		Stage:     scanStage,
		Document:  doc,
		Page:      page,
		Line:      line,
		Reference: ref,
		Message:   msg,
	}
}

// hasNonLatinLetters reports whether s contains a letter outside the Latin script
func hasNonLatinLetters(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			return true
		}
	}
	return false
}
