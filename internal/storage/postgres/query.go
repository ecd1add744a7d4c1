package postgres

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/YC815/my-accounting/internal/core"
)

// where accumulates AND-ed predicates. Clauses use "?" placeholders which
// are numbered when added, so the args slice can be passed straight to pgx.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, args ...any) {
	var b strings.Builder
	n := 0
	for _, r := range clause {
		if r == '?' && n < len(args) {
			w.args = append(w.args, args[n])
			n++
			b.WriteString("$" + strconv.Itoa(len(w.args)))
			continue
		}
		b.WriteRune(r)
	}
	w.clauses = append(w.clauses, b.String())
}

// next returns the placeholder for an argument appended after the clauses.
func (w *where) next(arg any) string {
	w.args = append(w.args, arg)
	return "$" + strconv.Itoa(len(w.args))
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func (w *where) dateRange(col string, r core.DateRange) {
	if !r.Start.IsZero() {
		w.add(col+" >= ?", r.Start.Time)
	}
	if !r.End.IsZero() {
		w.add(col+" <= ?", r.End.Time)
	}
}

func (w *where) amountRange(col string, min, max decimal.NullDecimal) {
	if min.Valid {
		w.add(col+" >= ?::numeric", min.Decimal.String())
	}
	if max.Valid {
		w.add(col+" <= ?::numeric", max.Decimal.String())
	}
}

func (w *where) contains(col, s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	w.add(col+` ILIKE ? ESCAPE '\'`, "%"+escapeLike(s)+"%")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
