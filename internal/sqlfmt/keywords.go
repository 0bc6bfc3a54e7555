package sqlfmt

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// functionWords are keywords written tight against their argument list,
// like COUNT(*). Plain names and type names are always written that way.
var functionWords = set(
	"COUNT", "SUM", "AVG", "MIN", "MAX", "COALESCE", "NULLIF", "CAST",
	"LOWER", "UPPER", "TRIM", "LTRIM", "RTRIM", "LENGTH", "SUBSTRING",
	"SUBSTR", "REPLACE", "CONCAT", "ABS", "CEIL", "FLOOR", "ROUND", "NOW",
	"EXTRACT", "DATE_TRUNC", "TO_CHAR", "TO_DATE", "TO_NUMBER", "ROW_NUMBER",
	"RANK", "DENSE_RANK", "LAG", "LEAD", "FIRST_VALUE", "LAST_VALUE", "NTILE",
	"STRING_AGG", "ARRAY_AGG", "JSON_AGG", "GROUP_CONCAT", "BOOL_AND",
	"BOOL_OR", "EVERY", "LEFT", "RIGHT", "POSITION", "OVERLAY", "CONVERT",
	"IFNULL", "IIF", "DATE", "TIME", "DATETIME", "YEAR", "MONTH", "DAY",
	"HOUR", "MINUTE", "SECOND", "CHAR", "CHARACTER", "VARCHAR", "DECIMAL",
	"NUMERIC", "FLOAT", "DOUBLE", "TIMESTAMP", "INTERVAL",
	"STRFTIME", "JULIANDAY", "RANDOM", "TYPEOF", "INSTR",
	"PRINTF", "FORMAT", "GREATEST", "LEAST", "MOD", "POWER", "SQRT", "EXP",
	"LN", "LOG", "SIGN", "CHAR_LENGTH", "OCTET_LENGTH", "CURRENT_DATE",
	"CURRENT_TIME", "CURRENT_TIMESTAMP", "LOCALTIME", "LOCALTIMESTAMP",
)

// valueWords are keywords that end an operand, so a following "-" or "+"
// is binary.
var valueWords = set(
	"NULL", "TRUE", "FALSE", "END", "UNKNOWN",
	"CURRENT_DATE", "CURRENT_TIME", "CURRENT_TIMESTAMP",
	"CURRENT_USER", "SESSION_USER", "LOCALTIME", "LOCALTIMESTAMP",
)

// tableKeywords start a table-level clause inside a CREATE TABLE body.
var tableKeywords = set(
	"PRIMARY", "FOREIGN", "CONSTRAINT", "UNIQUE", "CHECK", "KEY", "INDEX",
	"EXCLUDE",
)

// clauseWords start a new line at the current indent.
var clauseWords = set(
	"SELECT", "FROM", "WHERE", "HAVING", "LIMIT", "OFFSET", "VALUES", "SET",
	"RETURNING", "INTERSECT", "EXCEPT",
)

// listClauses break their top-level comma lists one item per line.
var listClauses = set("SELECT", "GROUP BY", "ORDER BY")

// condClauses break AND/OR onto their own lines.
var condClauses = set("WHERE", "HAVING", "JOIN")

var joinModifiers = set("NATURAL", "LEFT", "RIGHT", "FULL", "INNER", "CROSS", "OUTER")
