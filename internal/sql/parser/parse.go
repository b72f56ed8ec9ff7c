package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var (
	ErrUnknownStatement   = errors.New("microsql: unknown statement")
	ErrMalformedStatement = errors.New("microsql: malformed statement")
)

// Parse parses a single statement into an AST. The leading keyword is
// matched case-insensitively; a trailing ';' is tolerated.
func Parse(sql string) (Statement, error) {
	s := strings.TrimSpace(sql)
	s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	if s == "" {
		return nil, fmt.Errorf("%w: empty statement", ErrMalformedStatement)
	}

	up := upperASCII(s)
	switch {
	case strings.HasPrefix(up, "CREATE TABLE"):
		return parseCreateTable(s)
	case strings.HasPrefix(up, "INSERT INTO"):
		return parseInsert(s)
	case strings.HasPrefix(up, "SELECT"):
		return parseSelect(s)
	case strings.HasPrefix(up, "UPDATE"):
		return parseUpdate(s)
	case strings.HasPrefix(up, "DELETE"):
		return parseDelete(s)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatement, firstWord(s))
	}
}

func firstWord(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return s
}

// parseIdent validates a table or column name: one token, letter or '_'
// first, then letters/digits/'_'.
func parseIdent(s string) (string, error) {
	s = strings.TrimSpace(s)
	parts := strings.Fields(s)
	if len(parts) != 1 {
		return "", fmt.Errorf("%w: invalid identifier %q", ErrMalformedStatement, s)
	}
	id := parts[0]
	for i, r := range id {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return "", fmt.Errorf("%w: invalid identifier %q", ErrMalformedStatement, id)
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return "", fmt.Errorf("%w: invalid identifier %q", ErrMalformedStatement, id)
		}
	}
	return id, nil
}

// ----- CREATE TABLE -----

func parseCreateTable(sql string) (Statement, error) {
	rest := sql[len("CREATE TABLE"):]

	open := strings.Index(rest, "(")
	end := strings.LastIndex(rest, ")")
	if open < 0 || end < open {
		return nil, fmt.Errorf("%w: CREATE TABLE requires a parenthesized column list", ErrMalformedStatement)
	}

	tableName, err := parseIdent(rest[:open])
	if err != nil {
		return nil, err
	}

	cols, pk, uniques, err := parseColumnDefs(rest[open+1 : end])
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: CREATE TABLE %s has no columns", ErrMalformedStatement, tableName)
	}

	return &CreateTableStmt{
		TableName:  tableName,
		Columns:    cols,
		PrimaryKey: pk,
		Uniques:    uniques,
	}, nil
}

// parseColumnDefs splits the column list on top-level commas and classifies
// each definition: FOREIGN KEY definitions are recognized and skipped,
// PRIMARY KEY appears either as a table-level "PRIMARY KEY (col)" entry or
// trailing a column definition, and UNIQUE marks the column as unique.
func parseColumnDefs(list string) ([]ColumnDef, string, []string, error) {
	var (
		cols    []ColumnDef
		pk      string
		uniques []string
	)

	for _, def := range splitTopLevel(list) {
		def = strings.TrimSpace(def)
		if def == "" {
			continue
		}
		up := strings.ToUpper(def)

		// FOREIGN KEY is syntax-only; no referential constraint installed.
		if strings.Contains(up, "FOREIGN") {
			continue
		}

		if strings.HasPrefix(up, "PRIMARY KEY") {
			open := strings.Index(def, "(")
			end := strings.LastIndex(def, ")")
			if open < 0 || end < open {
				return nil, "", nil, fmt.Errorf("%w: PRIMARY KEY requires a column name", ErrMalformedStatement)
			}
			pk = strings.TrimSpace(def[open+1 : end])
			continue
		}

		fields := strings.Fields(def)
		name := fields[0]
		typ := "VARCHAR"
		if len(fields) > 1 {
			typ = fields[1]
		}

		if strings.Contains(up, "PRIMARY") {
			pk = name
		}
		if strings.Contains(up, "UNIQUE") {
			uniques = append(uniques, name)
		}
		cols = append(cols, ColumnDef{Name: name, Type: typ})
	}
	return cols, pk, uniques, nil
}

// ----- INSERT -----

func parseInsert(sql string) (Statement, error) {
	rest := sql[len("INSERT INTO"):]

	head, kw, valPart := cutAny(rest, "VALUES")
	if kw == "" {
		return nil, fmt.Errorf("%w: INSERT requires VALUES", ErrMalformedStatement)
	}

	var columns []string
	namePart := head
	if open := strings.Index(head, "("); open >= 0 {
		end := strings.LastIndex(head, ")")
		if end < open {
			return nil, fmt.Errorf("%w: unterminated column list", ErrMalformedStatement)
		}
		namePart = head[:open]
		for _, c := range strings.Split(head[open+1:end], ",") {
			columns = append(columns, strings.TrimSpace(c))
		}
	}

	tableName, err := parseIdent(namePart)
	if err != nil {
		return nil, err
	}

	open := strings.Index(valPart, "(")
	end := strings.LastIndex(valPart, ")")
	if open < 0 || end < open {
		return nil, fmt.Errorf("%w: VALUES requires a parenthesized list", ErrMalformedStatement)
	}

	var values []Literal
	for _, raw := range splitOutsideQuotes(valPart[open+1 : end]) {
		values = append(values, parseLiteral(strings.TrimSpace(raw)))
	}

	return &InsertStmt{TableName: tableName, Columns: columns, Values: values}, nil
}

// ----- SELECT -----

func parseSelect(sql string) (Statement, error) {
	_, kw, rest := cutAny(sql, "FROM")
	if kw == "" {
		return nil, fmt.Errorf("%w: SELECT requires FROM", ErrMalformedStatement)
	}

	stmt := &SelectStmt{Limit: -1}

	head, kw, tail := cutAny(rest, "JOIN", "WHERE", "ORDER BY", "LIMIT")
	if kw == "JOIN" {
		mainName, left := stripJoinType(head)
		name, err := parseIdent(mainName)
		if err != nil {
			return nil, err
		}
		stmt.TableName = name

		joinedHead, onKw, afterOn := cutAny(tail, "ON")
		if onKw == "" {
			return nil, fmt.Errorf("%w: JOIN requires ON", ErrMalformedStatement)
		}
		joinedName, err := parseIdent(stripJoinKeywords(joinedHead))
		if err != nil {
			return nil, err
		}

		condText, nextKw, nextTail := cutAny(afterOn, "WHERE", "ORDER BY", "LIMIT")
		leftRef, rightRef, err := parseOnCondition(condText)
		if err != nil {
			return nil, err
		}
		stmt.Join = &JoinClause{
			TableName: joinedName,
			Left:      left,
			LeftRef:   leftRef,
			RightRef:  rightRef,
		}
		kw, tail = nextKw, nextTail
	} else {
		name, err := parseIdent(head)
		if err != nil {
			return nil, err
		}
		stmt.TableName = name
	}

	if err := parseTrailingClauses(stmt, kw, tail); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseTrailingClauses consumes the WHERE / ORDER BY / LIMIT sequence; each
// clause runs to the next recognized keyword or end of input.
func parseTrailingClauses(stmt *SelectStmt, kw, tail string) error {
	for kw != "" {
		head, nextKw, nextTail := cutAny(tail, "WHERE", "ORDER BY", "LIMIT")
		switch kw {
		case "WHERE":
			stmt.Where = parseWhere(head)
		case "ORDER BY":
			ord, err := parseOrderBy(head)
			if err != nil {
				return err
			}
			stmt.OrderBy = ord
		case "LIMIT":
			n, err := parseLimit(head)
			if err != nil {
				return err
			}
			stmt.Limit = n
		}
		kw, tail = nextKw, nextTail
	}
	return nil
}

// stripJoinType removes a trailing LEFT or INNER token from the main-table
// text and reports whether the join is LEFT.
func stripJoinType(head string) (string, bool) {
	fields := strings.Fields(head)
	if len(fields) == 0 {
		return head, false
	}
	switch strings.ToUpper(fields[len(fields)-1]) {
	case "LEFT":
		return strings.Join(fields[:len(fields)-1], " "), true
	case "INNER":
		return strings.Join(fields[:len(fields)-1], " "), false
	}
	return head, false
}

// stripJoinKeywords removes stray JOIN/LEFT/INNER tokens around the joined
// table name.
func stripJoinKeywords(s string) string {
	var kept []string
	for _, f := range strings.Fields(s) {
		switch strings.ToUpper(f) {
		case "JOIN", "LEFT", "INNER":
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// parseOnCondition accepts exactly one equality of the form
// "table.column = table.column".
func parseOnCondition(cond string) (FieldRef, FieldRef, error) {
	parts := strings.Split(cond, "=")
	if len(parts) != 2 {
		return FieldRef{}, FieldRef{}, fmt.Errorf("%w: ON supports a single equality, got %q", ErrMalformedStatement, cond)
	}
	left, err := parseFieldRef(parts[0])
	if err != nil {
		return FieldRef{}, FieldRef{}, err
	}
	right, err := parseFieldRef(parts[1])
	if err != nil {
		return FieldRef{}, FieldRef{}, err
	}
	return left, right, nil
}

func parseFieldRef(s string) (FieldRef, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return FieldRef{}, fmt.Errorf("%w: ON operand must be table.column, got %q", ErrMalformedStatement, s)
	}
	return FieldRef{Table: strings.TrimSpace(parts[0]), Column: strings.TrimSpace(parts[1])}, nil
}

// ----- UPDATE -----

func parseUpdate(sql string) (Statement, error) {
	rest := sql[len("UPDATE"):]

	head, kw, tail := cutAny(rest, "SET")
	if kw == "" {
		return nil, fmt.Errorf("%w: UPDATE requires SET", ErrMalformedStatement)
	}
	tableName, err := parseIdent(head)
	if err != nil {
		return nil, err
	}

	setPart, whereKw, wherePart := cutAny(tail, "WHERE")
	if strings.TrimSpace(setPart) == "" {
		return nil, fmt.Errorf("%w: UPDATE has no assignments", ErrMalformedStatement)
	}

	var assigns []Assignment
	for _, a := range splitOutsideQuotes(setPart) {
		kv := strings.SplitN(a, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("%w: invalid assignment %q", ErrMalformedStatement, strings.TrimSpace(a))
		}
		col, err := parseIdent(kv[0])
		if err != nil {
			return nil, err
		}
		assigns = append(assigns, Assignment{
			Column: col,
			Value:  parseLiteral(strings.TrimSpace(kv[1])),
		})
	}

	stmt := &UpdateStmt{TableName: tableName, Assignments: assigns}
	if whereKw != "" {
		stmt.Where = parseWhere(wherePart)
	}
	return stmt, nil
}

// ----- DELETE -----

func parseDelete(sql string) (Statement, error) {
	rest := sql[len("DELETE"):]

	_, kw, tail := cutAny(rest, "FROM")
	if kw == "" {
		return nil, fmt.Errorf("%w: DELETE requires FROM", ErrMalformedStatement)
	}

	head, whereKw, wherePart := cutAny(tail, "WHERE")
	tableName, err := parseIdent(head)
	if err != nil {
		return nil, err
	}

	stmt := &DeleteStmt{TableName: tableName}
	if whereKw != "" {
		stmt.Where = parseWhere(wherePart)
	}
	return stmt, nil
}

// ----- WHERE / ORDER BY / LIMIT -----

// whereOps lists the comparison operators in detection order. Two-character
// operators come first so that "<=" and ">=" are reachable; otherwise their
// one-character prefixes would always win the substring scan.
var whereOps = []string{"!=", "<=", ">=", "=", "<", ">"}

// parseWhere extracts the single binary predicate from the clause text. A
// clause with no recognized operator yields a match-all predicate (Op "").
func parseWhere(clause string) *WhereClause {
	clause = strings.TrimSpace(clause)
	for _, op := range whereOps {
		i := strings.Index(clause, op)
		if i < 0 {
			continue
		}
		return &WhereClause{
			Column: strings.TrimSpace(clause[:i]),
			Op:     op,
			Value:  parseLiteral(strings.TrimSpace(clause[i+len(op):])),
		}
	}
	return &WhereClause{}
}

func parseOrderBy(clause string) (*OrderClause, error) {
	fields := strings.Fields(clause)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: ORDER BY requires a column", ErrMalformedStatement)
	}
	return &OrderClause{
		Column: fields[0],
		Desc:   len(fields) > 1 && strings.EqualFold(fields[1], "DESC"),
	}, nil
}

func parseLimit(clause string) (int, error) {
	fields := strings.Fields(clause)
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: LIMIT requires a count", ErrMalformedStatement)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: invalid LIMIT count %q", ErrMalformedStatement, fields[0])
	}
	return n, nil
}

// ----- literals and text utilities -----

// parseLiteral classifies a raw literal token: NULL/TRUE/FALSE keywords
// (case-insensitive, unquoted), a single-quoted span with quotes stripped,
// or a bare token left for schema-driven coercion.
func parseLiteral(raw string) Literal {
	switch strings.ToUpper(raw) {
	case "NULL":
		return Literal{Kind: LitNull}
	case "TRUE":
		return Literal{Kind: LitBool, Bool: true}
	case "FALSE":
		return Literal{Kind: LitBool, Bool: false}
	}
	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		return Literal{Kind: LitText, Text: raw[1 : len(raw)-1]}
	}
	return Literal{Kind: LitBare, Text: raw}
}

// cutAny splits s at the earliest occurrence of any keyword
// (case-insensitive). It returns the trimmed text before the keyword, the
// keyword found (or ""), and the trimmed text after it.
func cutAny(s string, keywords ...string) (head, kw, tail string) {
	up := upperASCII(s)
	best := -1
	for _, k := range keywords {
		i := keywordIndex(up, k)
		if i >= 0 && (best < 0 || i < best) {
			best = i
			kw = k
		}
	}
	if best < 0 {
		return strings.TrimSpace(s), "", ""
	}
	head = strings.TrimSpace(s[:best])
	tail = strings.TrimSpace(s[best+len(kw):])
	return head, kw, tail
}

// upperASCII uppercases only the ASCII letters of s. Unlike
// strings.ToUpper it never changes the byte length, so indexes into the
// result are valid indexes into s.
func upperASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if 'a' <= r && r <= 'z' {
			return r - ('a' - 'A')
		}
		return r
	}, s)
}

// keywordIndex finds the first occurrence of kw in up that is bounded by
// start of string or a space on the left, and end of string, a space or '('
// on the right. The '(' boundary admits forms like "VALUES(1, 'x')".
func keywordIndex(up, kw string) int {
	from := 0
	for {
		i := strings.Index(up[from:], kw)
		if i < 0 {
			return -1
		}
		i += from
		j := i + len(kw)
		if (i == 0 || up[i-1] == ' ') &&
			(j == len(up) || up[j] == ' ' || up[j] == '(') {
			return i
		}
		from = i + 1
	}
}

// splitOutsideQuotes splits on commas that occur outside single-quoted
// spans; a quote toggles the in-string state.
func splitOutsideQuotes(s string) []string {
	var parts []string
	var cur strings.Builder
	inQuote := false
	for _, r := range s {
		switch r {
		case '\'':
			inQuote = !inQuote
			cur.WriteRune(r)
		case ',':
			if inQuote {
				cur.WriteRune(r)
			} else {
				parts = append(parts, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

// splitTopLevel splits on commas outside quotes and outside parentheses;
// used for column-definition lists where entries like "PRIMARY KEY (id)"
// carry their own parens.
func splitTopLevel(s string) []string {
	var parts []string
	var cur strings.Builder
	inQuote := false
	depth := 0
	for _, r := range s {
		switch r {
		case '\'':
			inQuote = !inQuote
			cur.WriteRune(r)
		case '(':
			if !inQuote {
				depth++
			}
			cur.WriteRune(r)
		case ')':
			if !inQuote && depth > 0 {
				depth--
			}
			cur.WriteRune(r)
		case ',':
			if inQuote || depth > 0 {
				cur.WriteRune(r)
			} else {
				parts = append(parts, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}
