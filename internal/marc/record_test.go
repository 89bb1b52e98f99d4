package marc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		field    *Field
		name     string
		expected string
	}{
		{
			name: "data field",
			field: NewDataField("245", '1', '0',
				Subfield{Code: 'a', Value: "Title /"},
				Subfield{Code: 'c', Value: "by Author."}),
			expected: "=245  10$aTitle /$cby Author.",
		},
		{
			name:     "blank indicators",
			field:    NewDataField("300", ' ', ' ', Subfield{Code: 'a', Value: "149 pages ;"}),
			expected: `=300  \\$a149 pages ;`,
		},
		{
			name:     "control field",
			field:    NewControlField("007", "cr nn"),
			expected: `=007  cr\nn`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.field.String())
		})
	}
}

func TestFieldSubfieldAccess(t *testing.T) {
	t.Parallel()

	f := NewDataField("245", '0', '0').
		AddSubfield('a', "Main").
		AddSubfield('n', "Part 1").
		AddSubfield('n', "Part 2").
		AddSubfield('h', "[sound recording]")

	assert.Equal(t, []string{"Part 1", "Part 2"}, f.Values('n'))
	assert.Nil(t, f.Values('b'))

	v, ok := f.First('a')
	assert.True(t, ok)
	assert.Equal(t, "Main", v)
	assert.False(t, f.Has('c'))

	assert.Equal(t, 2, f.DeleteSubfield('n'))
	assert.Equal(t, 1, f.DeleteSubfield('h'))
	assert.Equal(t, 0, f.DeleteSubfield('z'))
	require.Len(t, f.Subfields, 1)
	assert.Equal(t, Subfield{Code: 'a', Value: "Main"}, f.Subfields[0])
}

func TestFieldCloneIsIndependent(t *testing.T) {
	t.Parallel()

	f := NewDataField("500", ' ', ' ', Subfield{Code: 'a', Value: "Note"})
	c := f.Clone()
	c.Subfields[0].Value = "Changed"
	c.SetIndicator2('1')

	assert.Equal(t, "Note", f.Subfields[0].Value)
	assert.Equal(t, byte(' '), f.Indicator2())
}

func TestRecordFieldOperations(t *testing.T) {
	t.Parallel()

	rec := NewRecord()
	f500 := NewDataField("500", ' ', ' ', Subfield{Code: 'a', Value: "One"})
	f245 := NewDataField("245", '1', '0', Subfield{Code: 'a', Value: "Title"})
	f001 := NewControlField("001", "ocm123")
	rec.AddField(f500, f245, f001)

	assert.Equal(t, 3, rec.Len())
	assert.Same(t, f245, rec.Field("245"))
	assert.Nil(t, rec.Field("336"))
	assert.True(t, rec.HasField("001"))
	assert.Len(t, rec.Fields("500", "245"), 2)
	assert.Len(t, rec.Fields(), 3)

	v, ok := rec.ControlValue("001")
	assert.True(t, ok)
	assert.Equal(t, "ocm123", v)

	replacement := NewDataField("245", '1', '0', Subfield{Code: 'a', Value: "New"})
	assert.True(t, rec.ReplaceField(f245, replacement))
	assert.Same(t, replacement, rec.Fields()[1])

	rec.SortFields()
	tags := []string{}
	for _, f := range rec.Fields() {
		tags = append(tags, f.Tag)
	}
	assert.Equal(t, []string{"001", "245", "500"}, tags)

	assert.True(t, rec.RemoveField(f500))
	assert.False(t, rec.RemoveField(f500))
	assert.Equal(t, 2, rec.Len())
}

func TestRecordLeaderByte(t *testing.T) {
	t.Parallel()

	rec := &Record{Leader: "01760nam a22003735i 4500"}
	b, ok := rec.LeaderByte(6)
	assert.True(t, ok)
	assert.Equal(t, byte('a'), b)

	short := &Record{Leader: "bad"}
	_, ok = short.LeaderByte(6)
	assert.False(t, ok)
}
