package csv

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, input string, opts Options) ([]rawRecord, error) {
	t.Helper()
	tok := newTokenizer(strings.NewReader(input), opts)
	var out []rawRecord
	for {
		rec, ok, err := tok.next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, rec)
	}
}

func TestTokenizerSimpleRecords(t *testing.T) {
	recs, err := readAll(t, "a,b,c\n1,2,3\n", DefaultOptions().normalize())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, []string{"a", "b", "c"}, recs[0].fields)
	require.Equal(t, []string{"1", "2", "3"}, recs[1].fields)
}

func TestTokenizerNoTrailingNewlineNoPhantomRecord(t *testing.T) {
	recs, err := readAll(t, "a,b\nc,d", DefaultOptions().normalize())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, []string{"c", "d"}, recs[1].fields)
}

func TestTokenizerQuotedFieldWithEmbeddedSeparatorAndNewline(t *testing.T) {
	recs, err := readAll(t, "\"a,b\",\"c\nd\"\n", DefaultOptions().normalize())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "a,b", recs[0].fields[0])
	require.Equal(t, "c\nd", recs[0].fields[1])
}

func TestTokenizerEscapedQuoteInsideQuotedField(t *testing.T) {
	recs, err := readAll(t, `"say ""hi"""`+"\n", DefaultOptions().normalize())
	require.NoError(t, err)
	require.Equal(t, `say "hi"`, recs[0].fields[0])
}

func TestTokenizerRfcStrictQuoteErrorScenario(t *testing.T) {
	// §8 scenario 2: a stray unescaped quote appears inside field 3,
	// which already started unquoted (c) before the quote arrives.
	_, err := readAll(t, `a,b,c"x,d`+"\n", DefaultOptions().normalize())
	require.Error(t, err)
	var qe *QuoteError
	require.ErrorAs(t, err, &qe)
}

func TestTokenizerUnterminatedQuoteAtEOF(t *testing.T) {
	_, err := readAll(t, `a,"b,c`, DefaultOptions().normalize())
	require.Error(t, err)
	var qe *QuoteError
	require.ErrorAs(t, err, &qe)
	require.Contains(t, qe.Message, "unterminated")
}

func TestTokenizerLenientQuoteModeAllowsStrayQuote(t *testing.T) {
	opts := DefaultOptions().normalize()
	opts.QuoteMode = Lenient
	// The stray quote re-enters quoted mode; the next quote closes it.
	recs, err := readAll(t, `a,b"c",d`+"\n", opts)
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestTokenizerCRLFLineEndings(t *testing.T) {
	recs, err := readAll(t, "a,b\r\nc,d\r\n", DefaultOptions().normalize())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.EqualValues(t, 1, recs[0].lineNumber)
	require.EqualValues(t, 2, recs[1].lineNumber)
}

func TestTokenizerBlankLineIsOneEmptyField(t *testing.T) {
	recs, err := readAll(t, "\na,b\n", DefaultOptions().normalize())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, []string{""}, recs[0].fields)
}

func TestTokenizerEmptyInputProducesNoRecords(t *testing.T) {
	recs, err := readAll(t, "", DefaultOptions().normalize())
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestTokenizerTrailingGarbageAfterClosingQuote(t *testing.T) {
	_, err := readAll(t, `"a"b,c`+"\n", DefaultOptions().normalize())
	require.Error(t, err)
	var qe *QuoteError
	require.ErrorAs(t, err, &qe)
}

func TestTokenizerWhitespaceAfterClosingQuoteTolerated(t *testing.T) {
	recs, err := readAll(t, `"a"  ,b`+"\n", DefaultOptions().normalize())
	require.NoError(t, err)
	require.Equal(t, "a", recs[0].fields[0])
	require.Equal(t, "b", recs[0].fields[1])
}

func TestTokenizerCustomSeparator(t *testing.T) {
	opts := DefaultOptions().normalize()
	opts.Separator = ';'
	recs, err := readAll(t, "a;b;c\n", opts)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, recs[0].fields)
}
