package quotes

import (
	"strings"

	apperrors "github.com/xecuterisaquant/replication-cont-ofi/internal/errors"
)

// Field is a canonical quote column
type Field string

const (
	FieldSymbol  Field = "symbol"
	FieldTime    Field = "event_time"
	FieldBid     Field = "bid"
	FieldAsk     Field = "ask"
	FieldBidSize Field = "bid_size"
	FieldAskSize Field = "ask_size"
)

// fieldAliases lists the accepted raw column names per field, in the order
// fields are resolved. Within a field the first alias present wins.
var fieldAliases = []struct {
	field   Field
	aliases []string
}{
	{FieldSymbol, []string{"sym_root", "symbol", "sym", "ticker"}},
	{FieldTime, []string{"time_m", "timeM", "time", "ts_m", "seconds"}},
	{FieldBid, []string{"best_bid", "bid", "nbbo_bid"}},
	{FieldAsk, []string{"best_ask", "ask", "nbbo_ask"}},
	{FieldBidSize, []string{"best_bidsiz", "bidsiz", "bid_size", "nbbo_bidsiz", "bid_sz"}},
	{FieldAskSize, []string{"best_asksiz", "asksz", "ask_size", "nbbo_asksiz", "ask_sz"}},
}

// ColumnMap maps each canonical field to the raw column carrying it
type ColumnMap struct {
	names   map[Field]string
	indexes map[Field]int
}

// ResolveColumns matches a raw header against the known aliases. Matching
// is case-insensitive. When any field cannot be resolved the error is a
// *errors.SchemaResolutionError naming all of them.
func ResolveColumns(header []string) (ColumnMap, error) {
	lower := make(map[string]int, len(header))
	for i, col := range header {
		key := strings.ToLower(strings.TrimSpace(col))
		if _, dup := lower[key]; !dup {
			lower[key] = i
		}
	}

	cm := ColumnMap{
		names:   make(map[Field]string, len(fieldAliases)),
		indexes: make(map[Field]int, len(fieldAliases)),
	}
	var missing []string
	for _, fa := range fieldAliases {
		found := false
		for _, alias := range fa.aliases {
			if i, ok := lower[strings.ToLower(alias)]; ok {
				cm.names[fa.field] = header[i]
				cm.indexes[fa.field] = i
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, string(fa.field))
		}
	}

	if len(missing) > 0 {
		return ColumnMap{}, apperrors.NewSchemaResolutionError(missing, header)
	}
	return cm, nil
}

// Name returns the raw column name resolved for f
func (c ColumnMap) Name(f Field) string {
	return c.names[f]
}

// Index returns the header position of f, or -1 when unresolved
func (c ColumnMap) Index(f Field) int {
	if i, ok := c.indexes[f]; ok {
		return i
	}
	return -1
}

// Width is the minimum record length needed to read every resolved field
func (c ColumnMap) Width() int {
	width := 0
	for _, i := range c.indexes {
		if i+1 > width {
			width = i + 1
		}
	}
	return width
}
