// =============================================================================
// Invoice QC - Line-Item Extraction
// =============================================================================
//
// Line items are recovered by walking the document line by line with an
// explicit cursor. A trimmed line that looks like the start of an item opens
// a read-only lookahead window of that line plus up to nine following lines.
//
// START SIGNATURES:
//   ^\d+\s+\d+\s+VE    e.g. "1 4 VE  1 VE=20 Stück  64,00 16,0000 pro 1 VE"
//   ^\d+\s+[A-Z]       e.g. "2 Handschuhe ..."
//
// The cursor always advances by one line, whether or not the candidate
// produced an item. Positions are numbered from 1 and only consumed by
// successful items.
//
// =============================================================================

package extractor

import (
	"errors"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/invoice-qc/internal/types"
)

const (
	// windowSize is the candidate line plus nine lookahead lines.
	windowSize = 10

	// descriptionLines and articleLines bound the context searched for the
	// description and the supplier article number.
	descriptionLines = 8
	articleLines     = 5

	// totalTolerance accepts a line total slightly below quantity*price.
	totalTolerance = 0.9

	unknownDescription = "Unknown item"
)

var (
	reStartQtyUnit = regexp.MustCompile(`^\d+\s+\d+\s+VE`)
	reStartText    = regexp.MustCompile(`^\d+\s+[A-Z]`)

	reQuantity = regexp.MustCompile(`(\d+)\s+VE`)
	rePrice    = regexp.MustCompile(`(\d+[,.]?\d*)\s+pro\s+1\s+VE`)
	reAmount   = regexp.MustCompile(`\d+[,.]?\d*`)
	reArticle  = regexp.MustCompile(`Lief\.Art\.Nr:\s*(\S+)`)

	reContextNoise = regexp.MustCompile(`Lief\.Art\.Nr|Interne Mat\.Nr|Kostenstelle`)
	reDescription  = regexp.MustCompile(`^([A-ZÄÖÜa-zäöüß\s\-\[\]/]+)$`)
	reOnlyDigits   = regexp.MustCompile(`^\d+$`)
)

// errNoQuantity rejects a candidate whose start line carries no "<n> VE".
var errNoQuantity = errors.New("no quantity on candidate line")

// errNonFinite rejects a candidate whose amounts overflow float64.
var errNonFinite = errors.New("line item amount is not finite")

// =============================================================================
// CURSOR
// =============================================================================

// lineCursor walks the document lines and exposes a bounded lookahead.
type lineCursor struct {
	lines []string
	pos   int
}

func newLineCursor(text string) *lineCursor {
	return &lineCursor{lines: strings.Split(text, "\n")}
}

func (c *lineCursor) done() bool { return c.pos >= len(c.lines) }

// current returns the trimmed line under the cursor.
func (c *lineCursor) current() string { return strings.TrimSpace(c.lines[c.pos]) }

// window returns the raw lines from the cursor, at most n of them.
func (c *lineCursor) window(n int) []string {
	end := c.pos + n
	if end > len(c.lines) {
		end = len(c.lines)
	}
	return c.lines[c.pos:end]
}

func (c *lineCursor) advance() { c.pos++ }

// =============================================================================
// SCAN
// =============================================================================

// extractLineItems scans text for item-start signatures. A candidate that
// fails to parse is logged at debug level and skipped.
func extractLineItems(text string, logger *slog.Logger) []types.LineItem {
	items := make([]types.LineItem, 0)
	position := 1

	for c := newLineCursor(text); !c.done(); c.advance() {
		line := c.current()
		if !isItemStart(line) {
			continue
		}

		item, err := parseLineItem(line, c.window(windowSize), position)
		if err != nil {
			logger.Debug("line item candidate skipped", "line", c.pos+1, "text", line, "error", err)
			continue
		}
		items = append(items, item)
		position++
	}

	return items
}

func isItemStart(line string) bool {
	return reStartQtyUnit.MatchString(line) || reStartText.MatchString(line)
}

// parseLineItem builds one item from its start line and context window.
//
// PARAMETERS:
//   - line: The trimmed start line.
//   - window: The raw start line plus lookahead lines.
//   - position: The 1-based position to assign.
//
// RETURNS:
//   - The parsed item.
//   - errNoQuantity when the start line has no "<n> VE" token.
//   - errNonFinite when quantity, price or total is infinite or NaN.
func parseLineItem(line string, window []string, position int) (types.LineItem, error) {
	qm := reQuantity.FindStringSubmatch(line)
	if qm == nil {
		return types.LineItem{}, errNoQuantity
	}
	quantity := ParseEuropeanNumber(qm[1])

	var unitPrice float64
	if pm := rePrice.FindStringSubmatch(line); pm != nil {
		unitPrice = ParseEuropeanNumber(pm[1])
	}

	total := lineTotal(line, quantity, unitPrice)
	if !isFinite(quantity) || !isFinite(unitPrice) || !isFinite(total) {
		return types.LineItem{}, errNonFinite
	}

	item := types.LineItem{
		Position:      position,
		Description:   describe(window),
		ArticleNumber: articleNumber(window),
		Quantity:      quantity,
		Unit:          types.DefaultUnit,
		UnitPrice:     unitPrice,
		LineTotal:     total,
	}
	return item, nil
}

// lineTotal picks the total from the numeric tokens of the start line.
//
// With at least two tokens, the last one (scanning right to left) that is
// not below 90% of quantity*price wins. When nothing qualifies the product
// is used, provided a unit price was found.
func lineTotal(line string, quantity, unitPrice float64) float64 {
	var total float64

	amounts := reAmount.FindAllString(line, -1)
	if len(amounts) >= 2 {
		floor := quantity * unitPrice * totalTolerance
		for i := len(amounts) - 1; i >= 0; i-- {
			if v := ParseEuropeanNumber(amounts[i]); isFinite(v) && v >= floor {
				total = v
				break
			}
		}
	}

	if total == 0 && unitPrice > 0 {
		total = quantity * unitPrice
	}
	return total
}

func isFinite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// describe returns the first purely textual line of the window.
func describe(window []string) string {
	if len(window) > descriptionLines {
		window = window[:descriptionLines]
	}
	for _, raw := range window {
		if reContextNoise.MatchString(raw) {
			continue
		}
		m := reDescription.FindStringSubmatch(strings.TrimSpace(raw))
		if m == nil || utf8.RuneCountInString(m[1]) <= 3 {
			continue
		}
		desc := strings.TrimSpace(m[1])
		if reOnlyDigits.MatchString(desc) || strings.Contains(desc, "Bestellung") {
			continue
		}
		return desc
	}
	return unknownDescription
}

func articleNumber(window []string) *string {
	if len(window) > articleLines {
		window = window[:articleLines]
	}
	m := reArticle.FindStringSubmatch(strings.Join(window, "\n"))
	if m == nil {
		return nil
	}
	return types.String(m[1])
}
