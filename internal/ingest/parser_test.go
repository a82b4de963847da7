package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_Parse(t *testing.T) {
	text := "name,company,price\r\n" +
		"\r\n" +
		"Dell XPS 14,Dell,98000\r\n" +
		`"ASUS ROG, Strix",ASUS,"1,50,000"` + "\r\n" +
		"'Lenovo IdeaPad',Lenovo,50000\n"

	table, err := NewParser(0).ParseString(text)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "company", "price"}, table.Headers)
	assert.Equal(t, 3, table.TotalRows)
	assert.Empty(t, table.Warnings)
	require.Len(t, table.Records, 3)

	assert.Equal(t, 3, table.Records[0].Line)
	assert.Equal(t, "Dell XPS 14", table.Records[0].Get("name"))
	assert.Equal(t, "ASUS ROG, Strix", table.Records[1].Get("name"))
	assert.Equal(t, "1,50,000", table.Records[1].Get("price"))
	assert.Equal(t, "Lenovo IdeaPad", table.Records[2].Get("name"))
}

func TestParser_SplitLine(t *testing.T) {
	p := NewParser(',')

	tests := []struct {
		name    string
		line    string
		want    []string
		wantErr bool
	}{
		{name: "Trimmed values", line: " a , b ,c ", want: []string{"a", "b", "c"}},
		{name: "Empty fields", line: "a,,c,", want: []string{"a", "", "c", ""}},
		{name: "Doubled quote", line: `"15.6"" FHD",x`, want: []string{"15.6 FHD", "x"}},
		{name: "Apostrophe inside value", line: "Dell's best,x", want: []string{"Dells best", "x"}},
		{name: "Inch mark", line: `Dell 15" Laptop,15.6"`, want: []string{"Dell 15 Laptop", "15.6"}},
		{name: "Quote after text does not open a segment", line: `15.6",8,"a,b"`, want: []string{"15.6", "8", "a,b"}},
		{name: "Quote after blanks", line: `a,  "b,c"`, want: []string{"a", "b,c"}},
		{name: "Unterminated quote", line: `"open,x`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.splitLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParser_TolerancesAndWarnings(t *testing.T) {
	text := "a,b,c,d,e\n" +
		"1,2,3\n" + // headers-2 fields: accepted
		"1,2\n" + // too short
		`"broken,2,3,4,5` + "\n" +
		"1,2,3,4,5,6\n"

	table, err := NewParser(',').ParseString(text)
	require.NoError(t, err)

	assert.Equal(t, 4, table.TotalRows)
	require.Len(t, table.Records, 2)
	assert.Equal(t, "", table.Records[0].Get("d"))
	assert.Equal(t, "", table.Records[0].Get("e"))
	assert.Equal(t, "5", table.Records[1].Get("e"))

	require.Len(t, table.Warnings, 2)
	assert.Equal(t, 3, table.Warnings[0].Line)
	assert.Contains(t, table.Warnings[0].Reason, "expected at least 3 fields")
	assert.Equal(t, 4, table.Warnings[1].Line)
	assert.Contains(t, table.Warnings[1].Reason, "unterminated")
}

func TestParser_LongLineIsSkipped(t *testing.T) {
	text := "name,price\n" +
		"HP 15,65000\n" +
		strings.Repeat("x", maxLineBytes+10) + ",1\n" +
		"Acer Aspire,45000"

	table, err := NewParser(',').ParseString(text)
	require.NoError(t, err)

	assert.Equal(t, 3, table.TotalRows)
	require.Len(t, table.Records, 2)
	assert.Equal(t, "HP 15", table.Records[0].Get("name"))
	assert.Equal(t, 4, table.Records[1].Line)
	assert.Equal(t, "45000", table.Records[1].Get("price"))

	require.Len(t, table.Warnings, 1)
	assert.Equal(t, 3, table.Warnings[0].Line)
	assert.Contains(t, table.Warnings[0].Reason, "exceeds")
}

func TestParser_LongHeaderFails(t *testing.T) {
	_, err := NewParser(',').ParseString(strings.Repeat("h", maxLineBytes+1) + "\nx\n")
	assert.ErrorIs(t, err, errLineTooLong)
}

func TestParser_CustomDelimiter(t *testing.T) {
	table, err := NewParser(';').ParseString("name;price\nHP 15;65000\n")
	require.NoError(t, err)
	require.Len(t, table.Records, 1)
	assert.Equal(t, "65000", table.Records[0].Get("price"))
}

func TestParser_NoHeader(t *testing.T) {
	_, err := NewParser(',').ParseString("\n  \n\r\n")
	assert.ErrorIs(t, err, ErrNoHeader)
}
